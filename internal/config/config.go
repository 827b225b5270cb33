package config

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Service identity
	ServiceName string

	// HTTP Configuration
	HTTPAddr string

	// Model Configuration
	ModelPath        string
	ContributionSeed uint64

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Data Directory Configuration
	DataDir string

	// Database Configuration
	DBPath string

	// NATS Configuration
	NatsEnabled    bool
	NatsURL        string
	Stream         string
	Subject        string
	Durable        string
	ResponsePrefix string
	MaxMsgs        int
	MaxAge         time.Duration
	AckWait        time.Duration
	MaxDeliver     int
	MaxAckPending  int
	Concurrency    int

	// Monitoring Configuration
	MonitoringTopic       string
	BackpressureThreshold int
	HeartbeatInterval     time.Duration
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			slog.Warn("Could not load env file", "file", envFile, "error", err)
		} else {
			slog.Info("Environment loaded", "file", envFile)
		}
	}

	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		ServiceName:           getEnv("SERVICE_NAME", "attrition"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":5000"),
		ModelPath:             getEnv("MODEL_PATH", "attrition_model.json"),
		ContributionSeed:      uint64(getEnvInt("CONTRIBUTION_SEED", 0)),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		DataDir:               dataDir,
		DBPath:                getEnv("DB_PATH", filepath.Join(dataDir, "attrition.sqlite")),
		NatsEnabled:           getEnvBool("NATS_ENABLED", false),
		NatsURL:               getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		Stream:                getEnv("STREAM_NAME", "ATTRITION"),
		Subject:               getEnv("SUBJECT", "attrition.predict.request"),
		Durable:               getEnv("QUEUE_DURABLE", "attrition-wq"),
		ResponsePrefix:        getEnv("RESPONSE_PREFIX", "attrition.predict.reply"),
		MaxMsgs:               getEnvInt("QUEUE_MAX_MSGS", 2000),
		MaxAge:                getEnvDuration("QUEUE_MAX_AGE", "30s"),
		AckWait:               getEnvDuration("ACK_WAIT", "30s"),
		MaxDeliver:            getEnvInt("MAX_DELIVER", 5),
		MaxAckPending:         getEnvInt("MAX_ACK_PENDING", 64),
		Concurrency:           getEnvInt("WORKER_CONCURRENCY", 2),
		MonitoringTopic:       getEnv("MONITORING_TOPIC", "monitoring.models"),
		BackpressureThreshold: getEnvInt("BACKPRESSURE_THRESHOLD", 10),
		HeartbeatInterval:     getEnvDuration("HEARTBEAT_INTERVAL", "30s"),
	}, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadDotEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration only accepts positive durations.
func getEnvDuration(key, defaultVal string) time.Duration {
	val := getEnv(key, defaultVal)
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if val != defaultVal {
		slog.Warn("Invalid duration, using default", "key", key, "value", val, "default", defaultVal)
	}
	d, _ := time.ParseDuration(defaultVal)
	return d
}
