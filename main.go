package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericjkge/eeg-tutor/internal/backend"
	"github.com/ericjkge/eeg-tutor/internal/calibration"
	"github.com/ericjkge/eeg-tutor/internal/config"
	"github.com/ericjkge/eeg-tutor/internal/feed"
	logger "github.com/ericjkge/eeg-tutor/internal/logging"
	"github.com/ericjkge/eeg-tutor/internal/router"
	"github.com/ericjkge/eeg-tutor/internal/wizard"

	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger. Configuration is not readable yet, so this one
	// runs on the defaults and is replaced right after config.Init.
	bootstrap, err := logger.Init(".", logger.DefaultRotation)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	// Initialize Configuration
	if err := config.Init(".", bootstrap); err != nil {
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}
	conf := config.Conf

	// Rebuild the logger with the configured rotation settings.
	log, err := logger.Init(".", logger.Rotation{
		Directory:  conf.Logging.Directory,
		MaxSize:    conf.Logging.MaxSize,
		MaxBackups: conf.Logging.MaxBackups,
		MaxAge:     conf.Logging.MaxAge,
		Compress:   conf.Logging.Compress,
	})
	if err != nil {
		bootstrap.Fatal("Failed to initialize configured logger", zap.Error(err))
	}
	bootstrap.Sync()
	defer log.Sync()

	// Load the local calibration question bank. It backs the Calibrate
	// stage when the backend serves no test set.
	var fallback []calibration.Question
	if bank, err := calibration.LoadQuestionBank(conf.Wizard.QuestionFile); err != nil {
		log.Warn("No local question bank loaded", zap.Error(err))
	} else {
		fallback = bank.Questions
	}

	// Collaborator client and the two orchestration surfaces.
	client := backend.New(conf.Backend.BaseURL, conf.Backend.RequestTimeout, log)

	monitor := feed.NewMonitor(client, feed.Options{
		DataInterval:   conf.Polling.DataInterval,
		StatusInterval: conf.Polling.StatusInterval,
		WindowSeconds:  conf.Polling.WindowSeconds,
	}, log)

	machine := wizard.New(client, wizard.Config{
		AllowManualConnect: conf.Wizard.AllowManualConnect,
		OpenSessionOnEnter: conf.Wizard.OpenSessionOnEnter,
		StatusInterval:     conf.Polling.StatusInterval,
		FallbackQuestions:  fallback,
		Training: backend.TrainRequest{
			ValidationSplit:  conf.Training.ValidationSplit,
			SaveAsNewVersion: conf.Training.SaveAsNewVersion,
		},
	}, log, func() {
		log.Info("Calibration wizard finished")
	})
	machine.Start(context.Background())

	// Stop pollers and close any open session on shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutting down")
		machine.Shutdown(context.Background())
		monitor.Stop()
		log.Sync()
		os.Exit(0)
	}()

	// Setup router, passing the logger to it
	r := router.Setup(log, monitor, machine)

	// Start the Gin server
	port := ":" + conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
