package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_MODE", "")
	t.Setenv("GATEWAY_MODE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageMode != StorageMemory || cfg.GatewayMode != GatewaySandbox {
		t.Fatalf("unexpected modes %s/%s", cfg.StorageMode, cfg.GatewayMode)
	}
	if cfg.CaptureLeadTime != 72*time.Hour || cfg.CaptureInterval != time.Hour {
		t.Fatalf("capture timing defaults wrong: %v %v", cfg.CaptureLeadTime, cfg.CaptureInterval)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[2] != 30*time.Second {
		t.Fatalf("retry backoff %v", cfg.RetryBackoff)
	}
	if cfg.Currency != "INR" || cfg.OperationLease != 2*time.Minute {
		t.Fatalf("currency %s lease %v", cfg.Currency, cfg.OperationLease)
	}
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("STORAGE_MODE", "mongo")
	t.Setenv("MONGO_URI", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without MONGO_URI")
	}
}

func TestLoadParsesCategories(t *testing.T) {
	t.Setenv("SERVICE_CATEGORIES", "photography,catering")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ServiceCategories) != 2 || cfg.ServiceCategories[1] != "catering" {
		t.Fatalf("categories %v", cfg.ServiceCategories)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("brokers %v", cfg.KafkaBrokers)
	}
}

func TestParseBackoffRejectsGarbage(t *testing.T) {
	if _, err := ParseBackoff("1s,soon"); err == nil {
		t.Fatalf("expected parse error")
	}
	got, err := ParseBackoff(" 1s , ,2m")
	if err != nil || len(got) != 2 || got[1] != 2*time.Minute {
		t.Fatalf("got %v %v", got, err)
	}
}

func TestLoadRejectsUnknownGateway(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "paypal")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown gateway")
	}
}
