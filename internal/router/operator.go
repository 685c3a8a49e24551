package router

import (
	"net/http"
	"sync"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const operatorSessionKey = "operatorID"

var (
	claimMu         sync.Mutex
	claimedOperator string
)

// OperatorGuard gives the wizard a single driver. The first session to
// touch a mutating route claims the wizard; requests from any other
// session are rejected until the process restarts.
func OperatorGuard(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		operatorID, ok := session.Get(operatorSessionKey).(string)
		if !ok || operatorID == "" {
			operatorID = uuid.NewString()
			session.Set(operatorSessionKey, operatorID)
			if err := session.Save(); err != nil {
				log.Error("Failed to save operator session", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		claimMu.Lock()
		if claimedOperator == "" {
			claimedOperator = operatorID
			log.Info("Wizard claimed by operator", zap.String("operator_id", operatorID))
		}
		claimed := claimedOperator
		claimMu.Unlock()

		if claimed != operatorID {
			c.JSON(http.StatusConflict, gin.H{"error": "The wizard is driven by another window"})
			c.Abort()
			return
		}
		c.Next()
	}
}
