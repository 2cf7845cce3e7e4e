package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"care_tracker/internal/telemetry"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	RelayLocal    = "local"
	RelayPostgres = "postgres"
)

// Config is read from the environment (after .env) and an optional config file.
type Config struct {
	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBTimezone string `mapstructure:"DB_TIMEZONE"`
	DBDebug    bool   `mapstructure:"DB_DEBUG"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisURL     string `mapstructure:"REDIS_URL"`
	RelayMode    string `mapstructure:"RELAY_MODE"`
	RelayChannel string `mapstructure:"RELAY_CHANNEL"`

	StaleAfter               time.Duration `mapstructure:"STALE_AFTER"`
	LowBatteryThreshold      float64       `mapstructure:"LOW_BATTERY_THRESHOLD"`
	CheckpointInterval       time.Duration `mapstructure:"CHECKPOINT_INTERVAL"`
	SilentInitialContainment bool          `mapstructure:"GEOFENCE_SILENT_INITIAL"`
	ZoneLookupFailOpen       bool          `mapstructure:"ZONE_LOOKUP_FAIL_OPEN"`
	SubscriberBuffer         int           `mapstructure:"SUBSCRIBER_BUFFER"`

	LogFile   string `mapstructure:"LOG_FILE"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogStdout bool   `mapstructure:"LOG_STDOUT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("JWT_SECRET", "supersecret")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "care_tracker")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("SQLITE_PATH", "care_tracker.db")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RELAY_MODE", RelayLocal)
	v.SetDefault("RELAY_CHANNEL", "location_history_inserts")

	v.SetDefault("STALE_AFTER", telemetry.DefaultStaleAfter)
	v.SetDefault("LOW_BATTERY_THRESHOLD", telemetry.DefaultLowBatteryThreshold)
	v.SetDefault("CHECKPOINT_INTERVAL", telemetry.DefaultCheckpointInterval)
	v.SetDefault("GEOFENCE_SILENT_INITIAL", true)
	v.SetDefault("ZONE_LOOKUP_FAIL_OPEN", false)
	v.SetDefault("SUBSCRIBER_BUFFER", 16)

	v.SetDefault("LOG_FILE", "./logs/app.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_STDOUT", false)
}

// Load reads .env if present, then environment variables, then configFile when
// it is not empty. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.RelayMode = strings.ToLower(strings.TrimSpace(c.RelayMode))

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.RelayMode {
	case RelayLocal:
	case RelayPostgres:
		if c.DBDriver != DriverPostgres {
			return fmt.Errorf("RELAY_MODE=postgres requires DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown RELAY_MODE %q", c.RelayMode)
	}
	if c.LowBatteryThreshold <= 0 || c.LowBatteryThreshold > 100 {
		return fmt.Errorf("LOW_BATTERY_THRESHOLD must be within (0, 100], got %v", c.LowBatteryThreshold)
	}
	return nil
}

// PostgresDSN builds the key/value DSN used by both gorm and the relay listener.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

// PipelineOptions maps the telemetry settings onto pipeline options.
func (c *Config) PipelineOptions() telemetry.Options {
	opts := telemetry.DefaultOptions()
	opts.StaleAfter = c.StaleAfter
	opts.LowBatteryThreshold = c.LowBatteryThreshold
	opts.CheckpointInterval = c.CheckpointInterval
	opts.SilentInitialContainment = c.SilentInitialContainment
	opts.ZoneLookupFailOpen = c.ZoneLookupFailOpen
	return opts
}
