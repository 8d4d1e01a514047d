package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"indigo/internal/classify"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 30 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

type Config struct {
	Port          string `yaml:"port"`
	WebhookSecret string `yaml:"webhook_secret"`

	DBPath               string `yaml:"db_path"`
	JournalRetentionDays int    `yaml:"journal_retention_days"`
	JournalPruneSchedule string `yaml:"journal_prune_schedule"`

	SlackBotToken    string `yaml:"slack_bot_token"`
	SlackChannelID   string `yaml:"slack_channel_id"`
	SlackMinPriority string `yaml:"slack_min_priority"`

	ExternalHTTPTimeoutSeconds int     `yaml:"external_http_timeout_seconds"`
	RateLimitPerSecond         float64 `yaml:"rate_limit_per_second"`
	Timezone                   string  `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	envOverride(&cfg.Port, "PORT")
	envOverrideAllowEmpty(&cfg.WebhookSecret, "WEBHOOK_SECRET")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.JournalRetentionDays, "JOURNAL_RETENTION_DAYS")
	envOverride(&cfg.JournalPruneSchedule, "JOURNAL_PRUNE_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.SlackMinPriority, "SLACK_MIN_PRIORITY")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverrideFloat(&cfg.RateLimitPerSecond, "RATE_LIMIT_PER_SECOND")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./indigo.db"
	}
	if cfg.JournalRetentionDays == 0 {
		cfg.JournalRetentionDays = 30
	}
	if cfg.JournalPruneSchedule == "" {
		cfg.JournalPruneSchedule = "@daily"
	}
	if cfg.SlackMinPriority == "" {
		cfg.SlackMinPriority = string(classify.PriorityLow)
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if cfg.WebhookSecret == "" {
		log.Printf("WARNING: webhook_secret is not set. Webhook signatures will not be verified.")
	}

	if cfg.SlackBotToken != "" && cfg.SlackChannelID == "" {
		log.Fatalf("slack_bot_token is set but slack_channel_id is not")
	}
	if _, ok := classify.ParsePriority(cfg.SlackMinPriority); !ok {
		log.Fatalf("invalid slack_min_priority '%s': must be LOW, MEDIUM or HIGH", cfg.SlackMinPriority)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		log.Fatalf("invalid port '%s': %v", cfg.Port, err)
	}
	if cfg.JournalRetentionDays < 1 {
		log.Fatalf("invalid journal_retention_days '%d': must be >= 1", cfg.JournalRetentionDays)
	}
	if _, err := cron.ParseStandard(cfg.JournalPruneSchedule); err != nil {
		log.Fatalf("invalid journal_prune_schedule '%s': %v", cfg.JournalPruneSchedule, err)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.RateLimitPerSecond < 0 {
		log.Fatalf("invalid rate_limit_per_second '%f': must be >= 0", cfg.RateLimitPerSecond)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

// MinPriority is the lowest issue priority that triggers a Slack notification.
func (c Config) MinPriority() classify.Priority {
	p, ok := classify.ParsePriority(c.SlackMinPriority)
	if !ok {
		return classify.PriorityLow
	}
	return p
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
