package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Database DatabaseConfig
	Broker   BrokerConfig
	Writes   WriteConfig
	Session  SessionConfig
	Admin    AdminConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// DatabaseConfig is the MySQL database holding the order status audit trail.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BrokerConfig enables order event publishing when URL is set.
type BrokerConfig struct {
	URL string
}

type WriteConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

type AdminConfig struct {
	User     string
	Password string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("STORE_DRIVER", StoreDriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "padaria")
	v.SetDefault("MONGO_TIMEOUT", "10s")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 50)
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "padaria")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "padaria_audit")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("WRITE_MAX_ATTEMPTS", 3)
	v.SetDefault("WRITE_BASE_BACKOFF", "100ms")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASSWORD", "1234")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	driver := v.GetString("STORE_DRIVER")
	if driver != StoreDriverMongo && driver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %q or %q", driver, StoreDriverMongo, StoreDriverMemory)
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
		"MONGO_TIMEOUT", "DB_CONN_MAX_LIFETIME", "WRITE_BASE_BACKOFF", "SESSION_IDLE_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	if durations["SESSION_IDLE_TIMEOUT"] <= 0 {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT %s: must be positive", durations["SESSION_IDLE_TIMEOUT"])
	}

	maxAttempts := v.GetInt("WRITE_MAX_ATTEMPTS")
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Store: StoreConfig{
			Driver: driver,
		},
		Mongo: MongoConfig{
			URI:         v.GetString("MONGO_URI"),
			Database:    v.GetString("MONGO_DATABASE"),
			Timeout:     durations["MONGO_TIMEOUT"],
			MaxPoolSize: v.GetUint64("MONGO_MAX_POOL_SIZE"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("AUDIT_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Broker: BrokerConfig{
			URL: v.GetString("AMQP_URL"),
		},
		Writes: WriteConfig{
			MaxAttempts: maxAttempts,
			BaseBackoff: durations["WRITE_BASE_BACKOFF"],
		},
		Session: SessionConfig{
			IdleTimeout: durations["SESSION_IDLE_TIMEOUT"],
		},
		Admin: AdminConfig{
			User:     v.GetString("ADMIN_USER"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	return cfg, nil
}
