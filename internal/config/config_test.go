package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/millionaire")

	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("driver = %q, want %q", cfg.Storage.Driver, DriverPostgres)
	}
	if cfg.Game.TimeLimit != 35*time.Minute {
		t.Errorf("time limit = %s, want 35m", cfg.Game.TimeLimit)
	}
	if cfg.Telegram.RateLimit != 2 || cfg.Telegram.RateBurst != 5 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.DB.MaxConnLifetime != 30*time.Second {
		t.Errorf("max conn lifetime = %s, want 30s", cfg.DB.MaxConnLifetime)
	}

	rules, err := cfg.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if rules.Scores.Levels() != 15 {
		t.Errorf("levels = %d, want 15", rules.Scores.Levels())
	}
	if got := rules.Scores.FireproofFloor(9); got != 32_000 {
		t.Errorf("fireproof floor at 9 = %d, want 32000", got)
	}

	help, err := cfg.HelpConfig()
	if err != nil {
		t.Fatalf("HelpConfig: %v", err)
	}
	if help.HintCorrectWeight != 0.9 || help.PollCorrectMin != 45 || help.PollCorrectMax != 90 {
		t.Errorf("help config = %+v", help)
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "")

	_, err := load(t.TempDir())
	if !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Fatalf("err = %v, want ErrMissingEnvironmentVariables", err)
	}
}

func TestLoadMemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("DATABASE_URL", "")

	dir := t.TempDir()
	yaml := "storage:\n  driver: memory\ngame:\n  time_limit: 10m\n  prizes: [10, 20, 30]\n  fireproof_levels: [1]\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.DB.DSN(); !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Errorf("DSN err = %v, want ErrMissingEnvironmentVariables", err)
	}

	rules, err := cfg.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if rules.TimeLimit != 10*time.Minute || rules.Scores.LastLevel() != 2 {
		t.Errorf("rules = %+v", rules)
	}
}

func TestRulesRejectsBadLadder(t *testing.T) {
	cfg := &Config{Game: Game{
		TimeLimit:       time.Minute,
		Prizes:          []int64{100, 50},
		FireproofLevels: []int{0},
	}}
	if _, err := cfg.Rules(); err == nil {
		t.Fatal("expected error for decreasing prizes")
	}
}

func TestLoadUnknownDriver(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("STORAGE_DRIVER", "sqlite")

	if _, err := load(t.TempDir()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
