package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ProviderNats = "nats"
	ProviderGRPC = "grpc"
	ProviderNone = "none"
)

type Config struct {
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	SSLMode    string
	RedisHost  string
	RedisPort  string
	NatsHost   string
	NatsPort   string
	ApiPort    string
	ApiEnabled string

	// GRPCHost/GRPCPort locate the remote EventService used by the grpc bus.
	GRPCHost       string
	GRPCPort       string
	GRPCListenPort string

	StoreProvider  string
	BusProvider    string
	WorkerProvider string
	BusBufferSize  int

	MaxTxAttempts   int
	RetryDelay      time.Duration
	StartingBalance int64

	SettlementSchedule string
	SettlementBatch    int

	// AdminIDs are provisioned with the admin role at startup.
	AdminIDs []string

	RateLimit float64
	RateBurst int
}

// New loads and validates configuration from environment variables.
// Postgres and Redis are only required with the postgres store. The HTTP API
// is optional: if ECOMAKER_API_ENABLED != "true", ApiAddr() returns an error
// and the HTTP server simply won't start.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:         os.Getenv("ECOMAKER_POSTGRES_USER"),
		DBPass:         os.Getenv("ECOMAKER_POSTGRES_PASSWORD"),
		DBHost:         os.Getenv("ECOMAKER_POSTGRES_HOST"),
		DBPort:         getEnv("ECOMAKER_POSTGRES_PORT", "5432"),
		DBName:         os.Getenv("ECOMAKER_POSTGRES_DB"),
		SSLMode:        getEnv("ECOMAKER_POSTGRES_SSLMODE", "disable"),
		RedisHost:      os.Getenv("ECOMAKER_REDIS_HOST"),
		RedisPort:      getEnv("ECOMAKER_REDIS_PORT", "6379"),
		NatsHost:       os.Getenv("ECOMAKER_NATS_HOST"),
		NatsPort:       getEnv("ECOMAKER_NATS_PORT", "4222"),
		GRPCHost:       os.Getenv("ECOMAKER_GRPC_HOST"),
		GRPCPort:       os.Getenv("ECOMAKER_GRPC_PORT"),
		GRPCListenPort: getEnv("ECOMAKER_GRPC_LISTEN_PORT", "50051"),
		ApiPort:        os.Getenv("ECOMAKER_API_PORT"),
		ApiEnabled:     os.Getenv("ECOMAKER_API_ENABLED"),

		StoreProvider:  getEnv("ECOMAKER_STORE", StorePostgres),
		BusProvider:    getEnv("ECOMAKER_BUS_PROVIDER", ProviderNone),
		WorkerProvider: os.Getenv("ECOMAKER_WORKER_PROVIDER"),
		BusBufferSize:  getEnvInt("ECOMAKER_BUS_BUFFER_SIZE", 1024),

		MaxTxAttempts:   getEnvInt("ECOMAKER_MAX_TX_ATTEMPTS", 5),
		RetryDelay:      getEnvDuration("ECOMAKER_RETRY_DELAY", 10*time.Millisecond),
		StartingBalance: int64(getEnvInt("ECOMAKER_STARTING_BALANCE", 30)),

		SettlementSchedule: getEnv("ECOMAKER_SETTLEMENT_SCHEDULE", "@every 30s"),
		SettlementBatch:    getEnvInt("ECOMAKER_SETTLEMENT_BATCH", 100),

		AdminIDs: splitList(os.Getenv("ECOMAKER_ADMIN_IDS")),

		RateLimit: getEnvFloat("ECOMAKER_RATE_LIMIT", 20),
		RateBurst: getEnvInt("ECOMAKER_RATE_BURST", 40),
	}

	switch cfg.StoreProvider {
	case StorePostgres:
		if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("missing required env for database: ECOMAKER_POSTGRES_USER/HOST/DB")
		}
		if cfg.RedisHost == "" {
			return nil, fmt.Errorf("missing required env for redis: ECOMAKER_REDIS_HOST")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid store %q, must be 'postgres' or 'memory'", cfg.StoreProvider)
	}

	if !validProvider(cfg.BusProvider) {
		return nil, fmt.Errorf("invalid bus provider %q, must be 'nats', 'grpc' or 'none'", cfg.BusProvider)
	}

	// Worker provider defaults to the bus provider.
	if cfg.WorkerProvider == "" {
		cfg.WorkerProvider = cfg.BusProvider
	}
	if !validProvider(cfg.WorkerProvider) {
		return nil, fmt.Errorf("invalid worker provider %q, must be 'nats', 'grpc' or 'none'", cfg.WorkerProvider)
	}
	if cfg.WorkerProvider != ProviderNone && cfg.StoreProvider != StorePostgres {
		return nil, fmt.Errorf("audit worker %q requires the postgres store", cfg.WorkerProvider)
	}

	if cfg.BusProvider == ProviderGRPC && (cfg.GRPCHost == "" || cfg.GRPCPort == "") {
		return nil, fmt.Errorf("missing required env for grpc bus: ECOMAKER_GRPC_HOST/PORT")
	}
	if (cfg.BusProvider == ProviderNats || cfg.WorkerProvider == ProviderNats) && cfg.NatsHost == "" {
		return nil, fmt.Errorf("missing required env for nats: ECOMAKER_NATS_HOST")
	}

	if cfg.MaxTxAttempts < 1 {
		return nil, fmt.Errorf("ECOMAKER_MAX_TX_ATTEMPTS must be at least 1, got %d", cfg.MaxTxAttempts)
	}
	if cfg.StartingBalance < 0 {
		return nil, fmt.Errorf("ECOMAKER_STARTING_BALANCE must not be negative")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%s", c.GRPCHost, c.GRPCPort)
}

func (c *Config) GRPCListenAddr() string {
	return ":" + c.GRPCListenPort
}

// ApiAddr returns the HTTP listen address if the API is enabled.
// Returns an error if ECOMAKER_API_ENABLED != "true"; callers should skip starting the HTTP server.
func (c *Config) ApiAddr() (string, error) {
	if c.ApiEnabled == "true" {
		if c.ApiPort == "" {
			return "", fmt.Errorf("ECOMAKER_API_PORT is required when ECOMAKER_API_ENABLED=true")
		}
		return ":" + c.ApiPort, nil
	}
	return "", fmt.Errorf("HTTP API is disabled (ECOMAKER_API_ENABLED != true)")
}

func validProvider(p string) bool {
	return p == ProviderNats || p == ProviderGRPC || p == ProviderNone
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var intVal int
	if _, err := fmt.Sscanf(val, "%d", &intVal); err != nil {
		return defaultVal
	}
	return intVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
