package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	LogLevel string
	Timezone *time.Location

	NATSURL     string
	NATSSubject string

	CORSOrigin         string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		GinMode:     getenv("GIN_MODE", "debug"),
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBDSN:       os.Getenv("DB_DSN"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: getenv("NATS_SUBJECT", "seating.events"),
		CORSOrigin:  getenv("CORS_ORIGIN", "*"),
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "seating.db"
		}
	case "mysql", "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for driver %s", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	tz := getenv("RESTAURANT_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("RESTAURANT_TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	rps, err := strconv.ParseFloat(getenv("RATE_LIMIT_PER_SECOND", "50"), 64)
	if err != nil || rps <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND")
	}
	cfg.RateLimitPerSecond = rps

	burst, err := strconv.Atoi(getenv("RATE_LIMIT_BURST", "10"))
	if err != nil || burst < 1 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST")
	}
	cfg.RateLimitBurst = burst

	return cfg, nil
}

// InitDB opens the database named by cfg.DBDriver.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
