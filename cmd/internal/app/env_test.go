package app

import (
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("HUB_TEST_STRING", "  hello  ")
	if got := EnvString("HUB_TEST_STRING", "def"); got != "hello" {
		t.Fatalf("EnvString=%q want=%q", got, "hello")
	}
	if got := EnvString("HUB_TEST_STRING_MISSING", "def"); got != "def" {
		t.Fatalf("EnvString missing=%q want=%q", got, "def")
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("HUB_TEST_BOOL", "true")
	if !EnvBool("HUB_TEST_BOOL", false) {
		t.Fatal("EnvBool(true) = false")
	}
	t.Setenv("HUB_TEST_BOOL", "not-a-bool")
	if EnvBool("HUB_TEST_BOOL", false) {
		t.Fatal("EnvBool(garbage) should fall back to default")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("HUB_TEST_DUR", "250ms")
	if got := EnvDuration("HUB_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("EnvDuration=%v", got)
	}
	t.Setenv("HUB_TEST_DUR", "-5s")
	if got := EnvDuration("HUB_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("negative duration should fall back, got %v", got)
	}
}

func TestEnvCSV(t *testing.T) {
	t.Setenv("HUB_TEST_CSV", "a, b ,,c")
	got := EnvCSV("HUB_TEST_CSV", "")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("EnvCSV=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EnvCSV=%v want=%v", got, want)
		}
	}
	if EnvCSV("HUB_TEST_CSV_MISSING", "") != nil {
		t.Fatal("missing CSV should be nil")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL=%v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("RefreshTTL=%v", cfg.RefreshTTL)
	}
	if cfg.BotHandle != "hubbot" {
		t.Fatalf("BotHandle=%q", cfg.BotHandle)
	}
	if cfg.WSAuthTimeout != 5*time.Second {
		t.Fatalf("WSAuthTimeout=%v", cfg.WSAuthTimeout)
	}
}
