package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Store configuration
	DataFile string // Path of the JSON document backing the store

	// Ledger configuration
	MinWithdrawalCents int64         // Smallest withdrawal a seller may request
	TrialDuration      time.Duration // Length of the one-time free trial
	PlanDuration       time.Duration // Length of a purchased plan
	PlanSweepInterval  time.Duration // How often lapsed plans are marked expired

	// Observability
	MetricsAddr string // Listen address of the /metrics endpoint, empty disables it
	LogLevel    string
	LogFormat   string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Set replaces the global configuration, used by tests and CLI flag overrides
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a deterministic configuration for tests
func NewTestConfig() *Config {
	return &Config{
		DataFile:           "store.json",
		MinWithdrawalCents: 1000,
		TrialDuration:      72 * time.Hour,
		PlanDuration:       30 * 24 * time.Hour,
		PlanSweepInterval:  time.Hour,
		LogLevel:           "warn",
		LogFormat:          "text",
		Environment:        "test",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "data/store.json")
	v.SetDefault("min_withdrawal_cents", 1000)
	v.SetDefault("trial_duration", "72h")
	v.SetDefault("plan_duration", "720h")
	v.SetDefault("plan_sweep_interval", "1h")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("environment", "development")
}

// load loads configuration from the environment and an optional .env file
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := &Config{
		DataFile:           v.GetString("data_file"),
		MinWithdrawalCents: v.GetInt64("min_withdrawal_cents"),
		TrialDuration:      v.GetDuration("trial_duration"),
		PlanDuration:       v.GetDuration("plan_duration"),
		PlanSweepInterval:  v.GetDuration("plan_sweep_interval"),
		MetricsAddr:        v.GetString("metrics_addr"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		Environment:        v.GetString("environment"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the store can not run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("DATA_FILE is required")
	}
	if c.MinWithdrawalCents <= 0 {
		return fmt.Errorf("MIN_WITHDRAWAL_CENTS must be positive")
	}
	if c.TrialDuration <= 0 {
		return fmt.Errorf("TRIAL_DURATION must be positive")
	}
	if c.PlanDuration <= 0 {
		return fmt.Errorf("PLAN_DURATION must be positive")
	}
	if c.PlanSweepInterval <= 0 {
		return fmt.Errorf("PLAN_SWEEP_INTERVAL must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}

// ConfigureLogging applies the log level and format to the global logger
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
