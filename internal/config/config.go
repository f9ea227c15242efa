package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort   string
	CORSOrigin   string
	MaxBodyBytes int64

	JWTSecret string

	// ShareBaseURL prefixes the list id in links returned by the share toggle.
	ShareBaseURL string

	LogLevel  string
	LogFormat string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	NotifyWorkers   int
	NotifyQueueSize int
	NotifyAttempts  uint

	DeleteRequiresOwner   bool
	TrustClientTimestamps bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "easylist"),
		DBPassword: getEnv("DB_PASSWORD", "easylist"),
		DBName:     getEnv("DB_NAME", "easylist"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort:   getEnv("SERVER_PORT", "8080"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:8081"),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 64*1024)),

		JWTSecret: getEnv("JWT_SECRET", "supersecretkey"),

		ShareBaseURL: getEnv("SHARE_BASE_URL", "https://easylist.link/list"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "EasyList <no-reply@easylist.link>"),

		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 100),
		NotifyAttempts:  uint(getEnvInt("NOTIFY_ATTEMPTS", 3)),

		DeleteRequiresOwner:   getEnvBool("DELETE_REQUIRES_OWNER", true),
		TrustClientTimestamps: getEnvBool("TRUST_CLIENT_TIMESTAMPS", false),
	}
}

// PostgresDSN is the key/value DSN used by the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

// PostgresURL is the pgx5:// URL expected by the migration driver.
func (c *Config) PostgresURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", value)
		return defaultVal
	}
	return b
}
