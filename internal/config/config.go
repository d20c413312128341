package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/segyhp/dues-engine/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	Env             string        `mapstructure:"env"`
	Timezone        string        `mapstructure:"timezone"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SchedulerConfig struct {
	// Spec is a six-field cron expression (seconds first).
	Spec     string `mapstructure:"spec"`
	Timezone string `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BusinessConfig struct {
	PenaltyPolicy    string `mapstructure:"penalty_policy"`
	PenaltyAmount    string `mapstructure:"penalty_amount"`
	PenaltyRate      string `mapstructure:"penalty_rate"`
	PenaltyCapPct    string `mapstructure:"penalty_cap_pct"`
	GraceMonths      int    `mapstructure:"grace_months"`
	PenaltyTableFile string `mapstructure:"penalty_table_file"`
	ReportWorkers    int    `mapstructure:"report_workers"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

var penaltyPolicies = map[string]bool{
	"zero":        true,
	"flat":        true,
	"percent":     true,
	"capped_flat": true,
	"table":       true,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.timezone", "Asia/Kolkata")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "dues")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("scheduler.spec", "0 30 1 * * *")
	v.SetDefault("scheduler.timezone", "Asia/Kolkata")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("business.penalty_policy", "zero")
	v.SetDefault("business.penalty_amount", "0")
	v.SetDefault("business.penalty_rate", "0")
	v.SetDefault("business.penalty_cap_pct", "0")
	v.SetDefault("business.grace_months", 0)
	v.SetDefault("business.penalty_table_file", "")
	v.SetDefault("business.report_workers", 4)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "6h")

	v.SetDefault("health.timeout", "5s")
}

// Load reads configuration from environment variables and an optional .env
// file. Keys map to variables by upper-casing and replacing dots, so
// server.port is SERVER_PORT and business.penalty_policy is
// BUSINESS_PENALTY_POLICY.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}

	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("SERVER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if _, err := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("SCHEDULER_SPEC must be a valid cron expression: %w", err)
	}

	if !penaltyPolicies[c.Business.PenaltyPolicy] {
		return fmt.Errorf("BUSINESS_PENALTY_POLICY %q is not supported", c.Business.PenaltyPolicy)
	}

	if c.Business.PenaltyPolicy == "table" && c.Business.PenaltyTableFile == "" {
		return fmt.Errorf("BUSINESS_PENALTY_TABLE_FILE is required for the table policy")
	}

	for name, value := range map[string]string{
		"BUSINESS_PENALTY_AMOUNT":  c.Business.PenaltyAmount,
		"BUSINESS_PENALTY_RATE":    c.Business.PenaltyRate,
		"BUSINESS_PENALTY_CAP_PCT": c.Business.PenaltyCapPct,
	} {
		d, err := utils.DecimalFromString(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", name, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.Business.GraceMonths < 0 {
		return fmt.Errorf("BUSINESS_GRACE_MONTHS must not be negative")
	}

	if c.Business.ReportWorkers <= 0 {
		return fmt.Errorf("BUSINESS_REPORT_WORKERS must be greater than 0")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_TIMEOUT must be a positive duration")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// Addr returns host:port of the Redis server.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// Location returns the zone used to decide the current month.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SchedulerLocation returns the zone cron expressions are evaluated in.
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetPenaltyAmount returns the flat or per-month penalty as decimal
func (c *Config) GetPenaltyAmount() decimal.Decimal {
	amount, _ := utils.DecimalFromString(c.Business.PenaltyAmount)
	return amount
}

// GetPenaltyRate returns the percent policy rate as decimal
func (c *Config) GetPenaltyRate() decimal.Decimal {
	rate, _ := utils.DecimalFromString(c.Business.PenaltyRate)
	return rate
}

// GetPenaltyCapPct returns the capped policy limit as a fraction of the due amount
func (c *Config) GetPenaltyCapPct() decimal.Decimal {
	capPct, _ := utils.DecimalFromString(c.Business.PenaltyCapPct)
	return capPct
}
