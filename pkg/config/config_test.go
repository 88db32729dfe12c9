package config

import "testing"

func TestLoadAppliesFlagOverrides(t *testing.T) {
	t.Setenv("DICTATION_PORT", "9000")
	cfg, err := Load([]string{"--port", "9100", "--log-level", "DEBUG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("expected flag to override env, got port %d", cfg.Port)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %q", cfg.LogLevel)
	}
}

func TestLoadDefaultsWithoutEnvOrFlags(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if len(cfg.StartPhrases) != 1 || cfg.StartPhrases[0] != "take this down" {
		t.Errorf("unexpected default start phrases: %v", cfg.StartPhrases)
	}
}

func TestEnvListSplitsAndTrims(t *testing.T) {
	t.Setenv("DICTATION_START_PHRASES", "freddy take this down,  hey dictate ")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"freddy take this down", "hey dictate"}
	if len(cfg.StartPhrases) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.StartPhrases)
	}
	for i := range want {
		if cfg.StartPhrases[i] != want[i] {
			t.Errorf("expected %v, got %v", want, cfg.StartPhrases)
		}
	}
}
