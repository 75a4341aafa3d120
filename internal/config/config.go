package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig holds the process-wide auth material. All of it is read once at
// startup and passed into the component constructors; nothing reads the
// environment after Load returns.
type AuthConfig struct {
	// TokenProvider selects the session credential format: "paseto" or "jwt".
	TokenProvider string
	// PasetoKey is the PASETO v4.local symmetric key (must be 32 bytes).
	PasetoKey []byte
	// JWTSecret is the HS256 signing secret (used when TokenProvider is "jwt").
	JWTSecret []byte
	// SessionDuration bounds how long a minted credential stays valid.
	SessionDuration time.Duration
	// BcryptCost is the work factor for password and verification-code hashes.
	BcryptCost int
	// OTPLength is the number of digits in a verification code.
	OTPLength int
	// OTPTTL is how long an issued verification code stays valid.
	OTPTTL time.Duration
	// OTPStore selects where verification codes live: "postgres" or "redis".
	OTPStore string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
}

const (
	TokenProviderPaseto = "paseto"
	TokenProviderJWT    = "jwt"

	OTPStorePostgres = "postgres"
	OTPStoreRedis    = "redis"
)

// Load reads configuration from environment variables.
// A .env file is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cinevault"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenProvider:   getEnv("TOKEN_PROVIDER", TokenProviderPaseto),
			PasetoKey:       []byte(getEnv("PASETO_KEY", "")),
			JWTSecret:       []byte(getEnv("JWT_SECRET", "")),
			SessionDuration: getDurationEnv("SESSION_DURATION", 24*time.Hour),
			BcryptCost:      getIntEnv("BCRYPT_COST", 10),
			OTPLength:       getIntEnv("OTP_LENGTH", 6),
			OTPTTL:          getDurationEnv("OTP_TTL", 3600*time.Second),
			OTPStore:        getEnv("OTP_STORE", OTPStorePostgres),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
		},
	}

	switch cfg.Auth.TokenProvider {
	case TokenProviderPaseto:
		// v4.local requires exactly 32 key bytes
		if len(cfg.Auth.PasetoKey) != 32 {
			return nil, fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(cfg.Auth.PasetoKey))
		}
	case TokenProviderJWT:
		if len(cfg.Auth.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(cfg.Auth.JWTSecret))
		}
	default:
		return nil, fmt.Errorf("unknown TOKEN_PROVIDER %q", cfg.Auth.TokenProvider)
	}

	if cfg.Auth.OTPStore != OTPStorePostgres && cfg.Auth.OTPStore != OTPStoreRedis {
		return nil, fmt.Errorf("unknown OTP_STORE %q", cfg.Auth.OTPStore)
	}
	if cfg.Auth.OTPLength < 4 || cfg.Auth.OTPLength > 10 {
		return nil, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", cfg.Auth.OTPLength)
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
