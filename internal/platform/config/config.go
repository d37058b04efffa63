package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "curio/pkg/platform/strings"
)

// Config captures everything the registry server needs from the environment
// so main stays lean.
type Config struct {
	Addr string

	// PostgresDSN selects the durable store. Empty means in-memory stores,
	// which is the mode unit tests and local development run in.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers enables the audit transition feed when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// JWTSigningKey verifies caller identity tokens.
	JWTSigningKey string

	// OperatorTokenHash is the bcrypt hash of the operator's shared secret.
	// Operator endpoints are disabled when empty.
	OperatorTokenHash string

	// OracleToken gates the randomness fulfillment path. Only the trusted
	// oracle collaborator holds it.
	OracleToken string

	// LocalOracle runs the in-process randomness fulfiller. Production
	// deployments disable it and rely on the external oracle.
	LocalOracle         bool
	LocalOracleInterval time.Duration

	// MintingCost and MaxSupply seed the global registry state on first boot;
	// the operator can adjust both at runtime.
	MintingCost uint64
	MaxSupply   uint64
}

// RedisConfig configures the optional asset view cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ViewTTL      time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("CURIO_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("CURIO_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("CURIO_KAFKA_BROKERS"); raw != "" {
		brokers = platformstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	return Config{
		Addr:              addr,
		PostgresDSN:       os.Getenv("CURIO_POSTGRES_DSN"),
		KafkaBrokers:      brokers,
		KafkaTopic:        os.Getenv("CURIO_KAFKA_TOPIC"),
		JWTSigningKey:     jwtSigningKey,
		OperatorTokenHash: os.Getenv("CURIO_OPERATOR_TOKEN_HASH"),
		OracleToken:       os.Getenv("CURIO_ORACLE_TOKEN"),

		LocalOracle:         os.Getenv("CURIO_LOCAL_ORACLE") == "true",
		LocalOracleInterval: envDuration("CURIO_LOCAL_ORACLE_INTERVAL", 2*time.Second),

		MintingCost: envUint("CURIO_MINTING_COST", 100),
		MaxSupply:   envUint("CURIO_MAX_SUPPLY", 10_000),

		Redis: RedisConfig{
			URL:          os.Getenv("CURIO_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			ViewTTL:      envDuration("CURIO_REDIS_VIEW_TTL", 5*time.Second),
		},
	}
}

func envUint(key string, def uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
