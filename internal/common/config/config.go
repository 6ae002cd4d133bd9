// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Nutrition NutritionConfig `mapstructure:"nutrition"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address for the API server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	ItemsIndex string   `mapstructure:"items_index"`
}

// --- Upstream Source Configuration ---

// SourcesConfig holds per-source fetch settings. The venue lists themselves
// live in the schedule catalog; only transport knobs belong here.
type SourcesConfig struct {
	Columbia     ColumbiaSourceConfig     `mapstructure:"columbia"`
	DineOnCampus DineOnCampusSourceConfig `mapstructure:"dineoncampus"`
}

type ColumbiaSourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type DineOnCampusSourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Origin  string `mapstructure:"origin"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// NutritionConfig holds settings for the USDA enrichment pass.
type NutritionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// SchedulerConfig holds settings for the periodic refresh cycle.
type SchedulerConfig struct {
	Interval   int  `mapstructure:"interval"` // minutes
	RunOnStart bool `mapstructure:"run_on_start"`
}

// AlertsConfig holds settings for ops alerting on degraded scrape cycles.
type AlertsConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	Region             string  `mapstructure:"region"`
	FromEmail          string  `mapstructure:"from_email"`
	ToEmail            string  `mapstructure:"to_email"`
	ErrorRateThreshold float64 `mapstructure:"error_rate_threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
