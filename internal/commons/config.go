package commons

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort     uint16
	StorageBackend string
	PostgresConn   string
	RedisAddr      string
	RedisPass      string

	AdminAPIKeyHash    string
	ProbeTimeout       time.Duration
	RateLimitPerMinute int
	IPGating           bool
	WhitelistIPs       []string

	AlertWebhookURL string
	NATSURL         string
	NATSSubject     string
	KafkaBrokers    []string
	KafkaTopic      string

	LogLevel string
}

const (
	decimalBase = 10
	bitSize     = 16
)

func LoadConfig() (Config, error) {
	var config Config
	var errors []string

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		errors = append(errors, "SERVER_PORT is not set")
	} else {
		parsedServerPort, err := strconv.ParseUint(serverPort, decimalBase, bitSize)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid SERVER_PORT: %s", err))
		} else {
			config.ServerPort = uint16(parsedServerPort)
		}
	}

	config.StorageBackend = getEnv("STORAGE_BACKEND", StorageMemory)
	switch config.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		conn, missing := postgresConn()
		errors = append(errors, missing...)
		config.PostgresConn = conn
	default:
		errors = append(errors, fmt.Sprintf("invalid STORAGE_BACKEND: %q", config.StorageBackend))
	}

	config.RedisAddr = os.Getenv("REDIS_ADDR")
	config.RedisPass = os.Getenv("REDIS_PASSWORD")

	config.AdminAPIKeyHash = os.Getenv("ADMIN_API_KEY_HASH")
	if config.AdminAPIKeyHash == "" {
		errors = append(errors, "ADMIN_API_KEY_HASH is not set")
	}

	probeTimeout, err := getEnvInt("PROBE_TIMEOUT_SECONDS", DefaultProbeTimeoutSeconds)
	if err != nil || probeTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid PROBE_TIMEOUT_SECONDS: %q", os.Getenv("PROBE_TIMEOUT_SECONDS")))
	}
	config.ProbeTimeout = time.Duration(probeTimeout) * time.Second

	config.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", DefaultRateLimitPerMinute)
	if err != nil || config.RateLimitPerMinute <= 0 {
		errors = append(errors, fmt.Sprintf("invalid RATE_LIMIT_PER_MINUTE: %q", os.Getenv("RATE_LIMIT_PER_MINUTE")))
	}

	if v := os.Getenv("IP_GATING"); v != "" {
		config.IPGating, err = strconv.ParseBool(v)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid IP_GATING: %s", err))
		}
	}
	config.WhitelistIPs = parseList(os.Getenv("WHITELIST_IPS"))

	config.AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	config.NATSURL = os.Getenv("NATS_URL")
	config.NATSSubject = getEnv("NATS_SUBJECT", DefaultNATSSubject)
	config.KafkaBrokers = parseList(os.Getenv("KAFKA_BROKERS"))
	config.KafkaTopic = getEnv("KAFKA_TOPIC", DefaultKafkaTopic)
	config.LogLevel = getEnv("LOG_LEVEL", "info")

	if len(errors) > 0 {
		for _, err := range errors {
			log.Errorf("Configuration Error: %s", err)
		}
		return Config{}, fmt.Errorf("configuration errors occurred: %s", strings.Join(errors, "; "))
	}

	return config, nil
}

func postgresConn() (string, []string) {
	var missing []string
	values := make(map[string]string)
	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_NAME"} {
		values[key] = os.Getenv(key)
		if values[key] == "" {
			missing = append(missing, key+" is not set")
		}
	}
	conn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		values["POSTGRES_USER"], values["POSTGRES_PASSWORD"], values["POSTGRES_HOST"], values["POSTGRES_PORT"], values["POSTGRES_NAME"])
	return conn, missing
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func parseList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadPostgresConn builds the connection URL from the POSTGRES_* variables alone.
func LoadPostgresConn() (string, error) {
	conn, missing := postgresConn()
	if len(missing) > 0 {
		return "", fmt.Errorf("configuration errors occurred: %s", strings.Join(missing, "; "))
	}
	return conn, nil
}
