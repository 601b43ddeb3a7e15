package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	GatewaySandbox  = "sandbox"
	GatewayRazorpay = "razorpay"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090"`

	StorageMode       string   `envconfig:"STORAGE_MODE" default:"memory"`
	MongoURI          string   `envconfig:"MONGO_URI"`
	MongoDB           string   `envconfig:"MONGO_DB" default:"vendorhub"`
	ServiceCategories []string `envconfig:"SERVICE_CATEGORIES" default:"photography,videography,catering,decoration,venue,makeup,mehndi,dj"`
	ServicesFixture   string   `envconfig:"SERVICES_FIXTURE" default:"data/services.json"`

	KafkaBrokers       []string        `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `envconfig:"KAFKA_TOPIC_PREFIX"`
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoffRaw    string          `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	RetryBackoff       []time.Duration `ignored:"true"`

	IdempotencyTTL time.Duration `envconfig:"IDEMP_TTL" default:"168h"`
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"vendorhub.notifications"`

	GatewayMode           string        `envconfig:"GATEWAY_MODE" default:"sandbox"`
	RazorpayKeyID         string        `envconfig:"RAZORPAY_KEY_ID" default:"rzp_test_sandbox"`
	RazorpayKeySecret     string        `envconfig:"RAZORPAY_KEY_SECRET" default:"sandbox_secret"`
	RazorpayWebhookSecret string        `envconfig:"RAZORPAY_WEBHOOK_SECRET" default:"sandbox_webhook"`
	RazorpayBaseURL       string        `envconfig:"RAZORPAY_BASE_URL"`
	GatewayTimeout        time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`

	Currency        string        `envconfig:"CURRENCY" default:"INR"`
	CaptureInterval time.Duration `envconfig:"CAPTURE_INTERVAL" default:"1h"`
	CaptureLeadTime time.Duration `envconfig:"CAPTURE_LEAD_TIME" default:"72h"`
	CaptureBatch    int           `envconfig:"CAPTURE_BATCH" default:"100"`
	OperationLease  time.Duration `envconfig:"OPERATION_LEASE" default:"2m"`
	VendorPenalty   int64         `envconfig:"VENDOR_PENALTY_MINOR" default:"10000"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" default:"minioadmin"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" default:"minioadmin"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"vendorhub-capture-reports"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.StorageMode = strings.ToLower(strings.TrimSpace(cfg.StorageMode))
	cfg.GatewayMode = strings.ToLower(strings.TrimSpace(cfg.GatewayMode))
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.StorageMode == "" {
		cfg.StorageMode = StorageMemory
	}
	if cfg.GatewayMode == "" {
		cfg.GatewayMode = GatewaySandbox
	}

	backoff, err := ParseBackoff(cfg.RetryBackoffRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBackoff = backoff

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	switch cfg.GatewayMode {
	case GatewaySandbox:
	case GatewayRazorpay:
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return Config{}, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required when GATEWAY_MODE=razorpay")
		}
	default:
		return Config{}, fmt.Errorf("invalid GATEWAY_MODE %q", cfg.GatewayMode)
	}
	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("invalid CURRENCY %q", cfg.Currency)
	}
	return cfg, nil
}

// ParseBackoff reads a comma separated duration list such as 1s,5s,30s.
func ParseBackoff(raw string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(raw, ",") {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", part, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "local"
}
