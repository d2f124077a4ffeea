package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetDecimalEnv returns a decimal environment variable or a default value.
func GetDecimalEnv(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// Config is built once at process start and passed into each component's
// constructor. Components never read the environment themselves.
type Config struct {
	Port      string
	JWTSecret string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	PinAttemptLimit int

	MinTransferAmount decimal.Decimal
	MaxTransferAmount decimal.Decimal
	TransferRetries   int
	TransferRetryBase time.Duration

	WithdrawTTL       time.Duration
	CreditVAExpiry    time.Duration
	DebitVAExpiry     time.Duration
	VANumberAttempts  int

	SettlementQueue    string
	SettlementAttempts int
	SettlementBackoff  time.Duration
	SettlementMaxDelay time.Duration
	SettlementTimeout  time.Duration

	SchedulerInterval time.Duration

	StripeKey    string
	CallbackKeys map[string]string
}

// Load builds the Config from the environment.
func Load() Config {
	return Config{
		Port:      GetEnv("PORT", "3000"),
		JWTSecret: GetEnv("JWT_SECRET", "lumapay"),

		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "lumapay"),
		DBPort:     GetEnv("DB_PORT", "5432"),

		RedisHost:     GetEnv("REDIS_HOST", "localhost"),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),

		PinAttemptLimit: GetIntEnv("PIN_ATTEMPT_LIMIT", 3),

		MinTransferAmount: GetDecimalEnv("MIN_TRANSFER_AMOUNT", decimal.NewFromInt(1)),
		MaxTransferAmount: GetDecimalEnv("MAX_TRANSFER_AMOUNT", decimal.NewFromInt(50_000_000)),
		TransferRetries:   GetIntEnv("TRANSFER_RETRIES", 3),
		TransferRetryBase: GetDurationEnv("TRANSFER_RETRY_BASE", 25*time.Millisecond),

		WithdrawTTL:      GetDurationEnv("WITHDRAW_TTL", 5*time.Minute),
		CreditVAExpiry:   GetDurationEnv("CREDIT_VA_EXPIRY", 24*365*10*time.Hour),
		DebitVAExpiry:    GetDurationEnv("DEBIT_VA_EXPIRY", 5*time.Minute),
		VANumberAttempts: GetIntEnv("VA_NUMBER_ATTEMPTS", 5),

		SettlementQueue:    GetEnv("SETTLEMENT_QUEUE", "settlement"),
		SettlementAttempts: GetIntEnv("SETTLEMENT_ATTEMPTS", 5),
		SettlementBackoff:  GetDurationEnv("SETTLEMENT_BACKOFF", 2*time.Second),
		SettlementMaxDelay: GetDurationEnv("SETTLEMENT_MAX_DELAY", 5*time.Minute),
		SettlementTimeout:  GetDurationEnv("SETTLEMENT_TIMEOUT", 30*time.Second),

		SchedulerInterval: GetDurationEnv("SCHEDULER_INTERVAL", time.Minute),

		StripeKey: GetEnv("STRIPE_SECRET_KEY", ""),
		CallbackKeys: map[string]string{
			"default": GetEnv("CALLBACK_CHANNEL_KEY", "dev-channel-key"),
		},
	}
}
