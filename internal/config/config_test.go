package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_MODEL", "test-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected default port: %s", cfg.Port)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("unexpected default session TTL: %v", cfg.SessionTTL)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("unexpected default sweep interval: %v", cfg.SweepInterval)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected default CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadRequiresModel(t *testing.T) {
	t.Setenv("LLM_MODEL", "")

	if _, err := Load(); err == nil {
		t.Error("expected Load to fail without LLM_MODEL")
	}
}

func TestLoadCrisisTerms(t *testing.T) {
	t.Setenv("LLM_MODEL", "test-model")
	t.Setenv("CRISIS_KEYWORDS", "desperate, hopeless , ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.CrisisTerms) != 2 {
		t.Fatalf("unexpected crisis terms: %v", cfg.CrisisTerms)
	}
	if cfg.CrisisTerms[0] != "desperate" || cfg.CrisisTerms[1] != "hopeless" {
		t.Errorf("unexpected crisis terms: %v", cfg.CrisisTerms)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("LLM_MODEL", "test-model")
	t.Setenv("SESSION_TTL", "0")

	if _, err := Load(); err == nil {
		t.Error("expected Load to fail for SESSION_TTL=0")
	}
}
