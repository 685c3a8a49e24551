package router

import (
	"net/http"
	"time"

	"github.com/ericjkge/eeg-tutor/internal/config"
	"github.com/ericjkge/eeg-tutor/internal/feed"
	"github.com/ericjkge/eeg-tutor/internal/handlers"
	"github.com/ericjkge/eeg-tutor/internal/wizard"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func rateLimitHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many training requests. Try again later."})
}

func Setup(log *zap.Logger, monitor *feed.Monitor, machine *wizard.Machine) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Local companion service, plain HTTP
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("eegtutor", store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	router.Use(CSRFProtection())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Handlers and routes
	feedHandler := handlers.NewFeedHandler(log, monitor)
	wizardHandler := handlers.NewWizardHandler(log, machine)

	// Training runs are expensive on the collaborator side; cap the rate.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 3,
	})
	trainLimiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateLimitHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.GET("/csrf", CSRFToken)

		feedRoutes := api.Group("/feed")
		{
			feedRoutes.GET("/status", feedHandler.Status)
			feedRoutes.GET("/chart", feedHandler.Chart)
			feedRoutes.POST("/start", feedHandler.StartMonitoring)
			feedRoutes.POST("/stop", feedHandler.StopMonitoring)
			feedRoutes.POST("/reset", feedHandler.ResetAnchor)
		}

		wizardRoutes := api.Group("/wizard")
		{
			wizardRoutes.GET("", wizardHandler.State)
			wizardRoutes.GET("/questions", wizardHandler.Questions)

			// Mutating wizard routes are claimed by a single operator so
			// two browser tabs cannot drive the flow concurrently.
			guarded := wizardRoutes.Group("")
			guarded.Use(OperatorGuard(log))
			{
				guarded.POST("/advance", wizardHandler.Advance)
				guarded.POST("/retreat", wizardHandler.Retreat)
				guarded.POST("/answer", wizardHandler.Answer)
				guarded.POST("/session/open", wizardHandler.OpenSession)
				guarded.POST("/train", trainLimiter, wizardHandler.Train)
			}
		}
	}

	return router
}
