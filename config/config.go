package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-reservation/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds every runtime setting. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	AppEnv   string
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string // mysql or sqlite
	DBDSN    string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	WorkflowTimeout time.Duration
	SessionIdleTTL  time.Duration

	IdentityMode        string // staff or demo
	StrictStatusDetails bool
	RecheckAvailability bool
	SeedFloorPlan       bool

	AMQPURL    string
	CORSOrigin string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && utils.InfoLogger != nil {
		utils.InfoLogger.Println("Warning: .env file not found, using environment only")
	}

	cfg := Config{
		AppEnv:              getEnv("APP_ENV", "dev"),
		Port:                getEnv("PORT", "8080"),
		GinMode:             os.Getenv("GIN_MODE"),
		LogLevel:            strings.ToLower(os.Getenv("LOG_LEVEL")),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:            time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		BcryptCost:          getInt("BCRYPT_COST", bcrypt.DefaultCost),
		WorkflowTimeout:     time.Duration(getInt("WORKFLOW_TIMEOUT_MS", 5000)) * time.Millisecond,
		SessionIdleTTL:      time.Duration(getInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		IdentityMode:        strings.ToLower(getEnv("IDENTITY_MODE", "staff")),
		StrictStatusDetails: getBool("STRICT_STATUS_DETAILS", false),
		RecheckAvailability: getBool("RECHECK_AVAILABILITY", false),
		SeedFloorPlan:       getBool("SEED_FLOOR_PLAN", true),
		AMQPURL:             os.Getenv("AMQP_URL"),
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://127.0.0.1:5500"),
	}
	cfg.DBDSN = dsnFromEnv(cfg.DBDriver)
	return cfg
}

// InitDB opens the configured database.
func InitDB(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch cfg.DBDriver {
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DBDSN), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func dsnFromEnv(driver string) string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	if driver == "sqlite" {
		return getEnv("DB_NAME", "reservations.db")
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		getEnv("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		getEnv("DB_HOST", "127.0.0.1"),
		getEnv("DB_PORT", "3306"),
		getEnv("DB_NAME", "reservations"),
	)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("invalid int for %s: %q, using %d", key, s, fallback)
		}
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
