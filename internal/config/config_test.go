package config

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"indigo/internal/classify"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "WEBHOOK_SECRET", "DB_PATH", "JOURNAL_RETENTION_DAYS", "JOURNAL_PRUNE_SCHEDULE",
		"SLACK_BOT_TOKEN", "SLACK_CHANNEL_ID", "SLACK_MIN_PRIORITY",
		"EXTERNAL_HTTP_TIMEOUT_SECONDS", "RATE_LIMIT_PER_SECOND",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	clearConfigEnv(t)

	cfg := LoadConfig()

	if cfg.Port != "3000" {
		t.Fatalf("unexpected port default: %q", cfg.Port)
	}
	if cfg.DBPath != "./indigo.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.JournalRetentionDays != 30 {
		t.Fatalf("unexpected retention default: %d", cfg.JournalRetentionDays)
	}
	if cfg.JournalPruneSchedule != "@daily" {
		t.Fatalf("unexpected prune schedule default: %q", cfg.JournalPruneSchedule)
	}
	if cfg.ExternalHTTPTimeoutSeconds != defaultExternalHTTPTimeoutSeconds {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.MinPriority() != classify.PriorityLow {
		t.Fatalf("unexpected min priority default: %q", cfg.MinPriority())
	}
	if cfg.SlackConfigured() {
		t.Fatal("slack should not be configured by default")
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if cfg.Addr() != ":3000" {
		t.Fatalf("unexpected addr: %q", cfg.Addr())
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "8081"
webhook_secret: "yaml-secret"
db_path: "/tmp/yaml.db"
journal_retention_days: 7
slack_bot_token: "xoxb-yaml"
slack_channel_id: "C123"
slack_min_priority: "medium"
rate_limit_per_second: 5
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	clearConfigEnv(t)
	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("PORT", "9090")
	t.Setenv("SLACK_MIN_PRIORITY", "HIGH")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "60")
	os.Unsetenv("WEBHOOK_SECRET")

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Fatalf("expected port from env override, got %q", cfg.Port)
	}
	if cfg.WebhookSecret != "yaml-secret" {
		t.Fatalf("expected webhook secret from yaml, got %q", cfg.WebhookSecret)
	}
	if cfg.DBPath != "/tmp/yaml.db" {
		t.Fatalf("expected db path from yaml, got %q", cfg.DBPath)
	}
	if cfg.JournalRetentionDays != 7 {
		t.Fatalf("expected retention from yaml, got %d", cfg.JournalRetentionDays)
	}
	if !cfg.SlackConfigured() {
		t.Fatal("expected slack to be configured from yaml")
	}
	if cfg.MinPriority() != classify.PriorityHigh {
		t.Fatalf("expected min priority from env override, got %q", cfg.MinPriority())
	}
	if cfg.RateLimitPerSecond != 5 {
		t.Fatalf("expected rate limit from yaml, got %f", cfg.RateLimitPerSecond)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 60 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("INDIGO_TEST_STR", "value")
	envOverride(&s, "INDIGO_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	t.Setenv("INDIGO_TEST_EMPTY", "")
	envOverrideAllowEmpty(&s, "INDIGO_TEST_EMPTY")
	if s != "" {
		t.Fatalf("envOverrideAllowEmpty failed, got %q", s)
	}

	i := 1
	t.Setenv("INDIGO_TEST_INT", "42")
	envOverrideInt(&i, "INDIGO_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	f := 0.1
	t.Setenv("INDIGO_TEST_FLOAT", "2.5")
	envOverrideFloat(&f, "INDIGO_TEST_FLOAT")
	if f != 2.5 {
		t.Fatalf("envOverrideFloat failed, got %f", f)
	}
}

func runFatalSubprocess(t *testing.T, testName, marker string) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run="+testName)
	cmd.Env = append(os.Environ(), marker+"=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigInvalidScheduleFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_SCHEDULE_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("JOURNAL_PRUNE_SCHEDULE", "every tuesday-ish")
		LoadConfig()
		return
	}
	runFatalSubprocess(t, "TestLoadConfigInvalidScheduleFatal", "TEST_INVALID_SCHEDULE_FATAL")
}

func TestLoadConfigSlackTokenWithoutChannelFatal(t *testing.T) {
	if os.Getenv("TEST_SLACK_PARTIAL_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
		_ = os.Unsetenv("SLACK_CHANNEL_ID")
		LoadConfig()
		return
	}
	runFatalSubprocess(t, "TestLoadConfigSlackTokenWithoutChannelFatal", "TEST_SLACK_PARTIAL_FATAL")
}

func TestLoadConfigInvalidMinPriorityFatal(t *testing.T) {
	if os.Getenv("TEST_MIN_PRIORITY_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("SLACK_MIN_PRIORITY", "blocker")
		LoadConfig()
		return
	}
	runFatalSubprocess(t, "TestLoadConfigInvalidMinPriorityFatal", "TEST_MIN_PRIORITY_FATAL")
}
