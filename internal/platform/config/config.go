package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration. Empty connection URLs select the
// in-memory / in-process implementations so the service runs with no
// infrastructure in development and tests.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Trust     TrustConfig
	Scheduler SchedulerConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
}

func (s Server) IsDevelopment() bool { return s.Environment == "development" }

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ScoreTTL     time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Partitions    int32
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// TrustConfig bounds the recompute path.
type TrustConfig struct {
	EvidenceTimeout  time.Duration
	RetryMaxElapsed  time.Duration
	RetryInitialWait time.Duration
	EventBufferSize  int
	// EventWorkers bounds concurrent recomputes; one worker's events run in order.
	EventWorkers int
}

type SchedulerConfig struct {
	// ExpirySweepSpec is a standard 5-field cron expression.
	ExpirySweepSpec string
}

// Load reads an optional .env file and then builds Config from the environment.
// Variables already present in the environment win over the file.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getEnv("CRAFTED_ADDR", ":8080"),
			Environment:   getEnv("CRAFTED_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getEnv("JWT_ISSUER", "crafted"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ScoreTTL:     getEnvDuration("REDIS_SCORE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         getEnv("KAFKA_EVIDENCE_TOPIC", "crafted.evidence-changed"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "crafted-trust-engine"),
			Partitions:    int32(getEnvInt("KAFKA_PARTITIONS", 6)),
		},
		Trust: TrustConfig{
			EvidenceTimeout:  getEnvDuration("TRUST_EVIDENCE_TIMEOUT", 5*time.Second),
			RetryMaxElapsed:  getEnvDuration("TRUST_RETRY_MAX_ELAPSED", 30*time.Second),
			RetryInitialWait: getEnvDuration("TRUST_RETRY_INITIAL_WAIT", 200*time.Millisecond),
			EventBufferSize:  getEnvInt("TRUST_EVENT_BUFFER", 256),
			EventWorkers:     getEnvInt("TRUST_EVENT_WORKERS", 8),
		},
		Scheduler: SchedulerConfig{
			ExpirySweepSpec: getEnv("EXPIRY_SWEEP_SPEC", "@hourly"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
