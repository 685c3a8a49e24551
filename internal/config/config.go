package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Wizard   WizardConfig   `mapstructure:"wizard"`
	Training TrainingConfig `mapstructure:"training"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds settings for the local HTTP surface.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// BackendConfig addresses the acquisition/calibration collaborator.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PollingConfig holds the cadence of the feed pollers.
type PollingConfig struct {
	StatusInterval time.Duration `mapstructure:"status_interval"`
	DataInterval   time.Duration `mapstructure:"data_interval"`
	WindowSeconds  float64       `mapstructure:"window_seconds"`
}

// WizardConfig holds the stage-gating policy knobs.
type WizardConfig struct {
	// AllowManualConnect relaxes the Connect-stage gate so an operator can
	// advance without the backend reporting a connected headband.
	AllowManualConnect bool `mapstructure:"allow_manual_connect"`
	// OpenSessionOnEnter opens the calibration session when the Calibrate
	// stage is entered rather than lazily on the first answer.
	OpenSessionOnEnter bool   `mapstructure:"open_session_on_enter"`
	QuestionFile       string `mapstructure:"question_file"`
}

// TrainingConfig holds the parameters forwarded to the training trigger.
type TrainingConfig struct {
	ValidationSplit  float64 `mapstructure:"validation_split"`
	SaveAsNewVersion bool    `mapstructure:"save_as_new_version"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "eeg-tutor-dev-secret")

	// Backend defaults. The acquisition service listens on 8000.
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.request_timeout", 5*time.Second)

	// Polling defaults
	v.SetDefault("polling.status_interval", 2*time.Second)
	v.SetDefault("polling.data_interval", time.Second)
	v.SetDefault("polling.window_seconds", 5.0)

	// Wizard defaults
	v.SetDefault("wizard.allow_manual_connect", false)
	v.SetDefault("wizard.open_session_on_enter", true)
	v.SetDefault("wizard.question_file", "config/questions.yaml")

	// Training defaults
	v.SetDefault("training.validation_split", 0.2)
	v.SetDefault("training.save_as_new_version", true)

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("EEGTUTOR") // e.g., EEGTUTOR_BACKEND_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
