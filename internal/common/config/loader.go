// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like USDA_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when not present.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dining-aggregator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.ItemsIndex == "" {
		cfg.Database.Elasticsearch.ItemsIndex = "menu-items"
	}
	if cfg.Sources.Columbia.BaseURL == "" {
		cfg.Sources.Columbia.BaseURL = "https://dining.columbia.edu"
	}
	if cfg.Sources.Columbia.Timeout == 0 {
		cfg.Sources.Columbia.Timeout = 30000
	}
	if cfg.Sources.DineOnCampus.BaseURL == "" {
		cfg.Sources.DineOnCampus.BaseURL = "https://apiv4.dineoncampus.com"
	}
	if cfg.Sources.DineOnCampus.Origin == "" {
		cfg.Sources.DineOnCampus.Origin = "https://barnard.dineoncampus.com"
	}
	if cfg.Sources.DineOnCampus.Timeout == 0 {
		cfg.Sources.DineOnCampus.Timeout = 30000
	}
	if cfg.Nutrition.BaseURL == "" {
		cfg.Nutrition.BaseURL = "https://api.nal.usda.gov/fdc/v1"
	}
	if cfg.Nutrition.Timeout == 0 {
		cfg.Nutrition.Timeout = 15000
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 60
	}
	if cfg.Alerts.ErrorRateThreshold == 0 {
		cfg.Alerts.ErrorRateThreshold = 0.5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", cfg.Server.Port)
	}
	if cfg.Nutrition.Enabled && cfg.Nutrition.APIKey == "" {
		return fmt.Errorf("nutrition enrichment enabled but nutrition.api_key is empty")
	}
	if cfg.Alerts.Enabled {
		if cfg.Alerts.FromEmail == "" || cfg.Alerts.ToEmail == "" {
			return fmt.Errorf("alerts enabled but from_email/to_email not set")
		}
		if cfg.Alerts.ErrorRateThreshold <= 0 || cfg.Alerts.ErrorRateThreshold > 1 {
			return fmt.Errorf("alerts error_rate_threshold must be in (0, 1]")
		}
	}
	return nil
}
