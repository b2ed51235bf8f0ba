package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns              int32
	KafkaConsumerGroup      string
	KafkaTopicOrderCreated  string
	KafkaTopicOrderPaid     string
	KafkaTopicOrderFailed   string
	KafkaTopicOrderRefunded string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	Currency        string
	ClickServiceID  string
	ClickSecretKey  string
	PaymeMerchantID string
	PaymeKey        string
	JWTSecret       string
	CommissionRate  float64

	StatusCacheTTL time.Duration
	EventDedupTTL  time.Duration
	StoreTimeout   time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL             string   `yaml:"postgres_url"`
		RedisURL                string   `yaml:"redis_url"`
		KafkaBrokers            []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup      string   `yaml:"kafka_consumer_group"`
		KafkaTopicOrderCreated  string   `yaml:"kafka_topic_order_created"`
		KafkaTopicOrderPaid     string   `yaml:"kafka_topic_order_paid"`
		KafkaTopicOrderFailed   string   `yaml:"kafka_topic_order_failed"`
		KafkaTopicOrderRefunded string   `yaml:"kafka_topic_order_refunded"`
	} `yaml:"dependencies"`
	Providers struct {
		Currency        string  `yaml:"currency"`
		ClickServiceID  string  `yaml:"click_service_id"`
		ClickSecretKey  string  `yaml:"click_secret_key"`
		PaymeMerchantID string  `yaml:"payme_merchant_id"`
		PaymeKey        string  `yaml:"payme_key"`
		CommissionRate  float64 `yaml:"commission_rate"`
	} `yaml:"providers"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:               "payment-service",
		HTTPPort:                8080,
		GRPCPort:                9090,
		MaxDBConns:              20,
		KafkaConsumerGroup:      "payment-service",
		KafkaTopicOrderCreated:  "order.created",
		KafkaTopicOrderPaid:     "payment.order.paid",
		KafkaTopicOrderFailed:   "payment.order.failed",
		KafkaTopicOrderRefunded: "payment.order.refunded",
		OutboxPollInterval:      2 * time.Second,
		OutboxBatchSize:         100,
		ConsumerPollInterval:    2 * time.Second,
		Currency:                "UZS",
		CommissionRate:          0.05,
		StatusCacheTTL:          time.Minute,
		EventDedupTTL:           7 * 24 * time.Hour,
		StoreTimeout:            5 * time.Second,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.KafkaTopicOrderCreated != "" {
			cfg.KafkaTopicOrderCreated = f.Dependencies.KafkaTopicOrderCreated
		}
		if f.Dependencies.KafkaTopicOrderPaid != "" {
			cfg.KafkaTopicOrderPaid = f.Dependencies.KafkaTopicOrderPaid
		}
		if f.Dependencies.KafkaTopicOrderFailed != "" {
			cfg.KafkaTopicOrderFailed = f.Dependencies.KafkaTopicOrderFailed
		}
		if f.Dependencies.KafkaTopicOrderRefunded != "" {
			cfg.KafkaTopicOrderRefunded = f.Dependencies.KafkaTopicOrderRefunded
		}
		if f.Providers.Currency != "" {
			cfg.Currency = f.Providers.Currency
		}
		cfg.ClickServiceID = f.Providers.ClickServiceID
		cfg.ClickSecretKey = f.Providers.ClickSecretKey
		cfg.PaymeMerchantID = f.Providers.PaymeMerchantID
		cfg.PaymeKey = f.Providers.PaymeKey
		if f.Providers.CommissionRate > 0 {
			cfg.CommissionRate = f.Providers.CommissionRate
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicOrderCreated = envOrDefault("KAFKA_TOPIC_ORDER_CREATED", cfg.KafkaTopicOrderCreated)
	cfg.KafkaTopicOrderPaid = envOrDefault("KAFKA_TOPIC_ORDER_PAID", cfg.KafkaTopicOrderPaid)
	cfg.KafkaTopicOrderFailed = envOrDefault("KAFKA_TOPIC_ORDER_FAILED", cfg.KafkaTopicOrderFailed)
	cfg.KafkaTopicOrderRefunded = envOrDefault("KAFKA_TOPIC_ORDER_REFUNDED", cfg.KafkaTopicOrderRefunded)
	cfg.Currency = envOrDefault("CURRENCY", cfg.Currency)
	cfg.ClickServiceID = envOrDefault("CLICK_SERVICE_ID", cfg.ClickServiceID)
	cfg.ClickSecretKey = envOrDefault("CLICK_SECRET_KEY", cfg.ClickSecretKey)
	cfg.PaymeMerchantID = envOrDefault("PAYME_MERCHANT_ID", cfg.PaymeMerchantID)
	cfg.PaymeKey = envOrDefault("PAYME_KEY", cfg.PaymeKey)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.StatusCacheTTL = time.Duration(envInt("STATUS_CACHE_SECONDS", int(cfg.StatusCacheTTL.Seconds()))) * time.Second
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.StoreTimeout = time.Duration(envInt("STORE_TIMEOUT_SECONDS", int(cfg.StoreTimeout.Seconds()))) * time.Second
	if raw := os.Getenv("COMMISSION_RATE"); raw != "" {
		if rate, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil && rate >= 0 {
			cfg.CommissionRate = rate
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.ClickSecretKey == "" && cfg.PaymeKey == "" {
		return Config{}, fmt.Errorf("at least one provider credential (CLICK_SECRET_KEY or PAYME_KEY) is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
