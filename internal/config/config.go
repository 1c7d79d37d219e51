package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	ChatAPIURL        string
	WebhookSecret     string
	EscalationChatID  int64
	ScriptsFile       string
	AdminsFile        string
	LockFile          string
	RedisAddr         string
	KafkaBrokers      []string
	SessionTTL        time.Duration
	ScriptsPollPeriod time.Duration
	ShutdownTimeout   time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultScriptsFile       = "scripts.yaml"
	defaultAdminsFile        = "admins.txt"
	defaultLockFile          = "bankdesk.lock"
	defaultSessionTTL        = 24 * time.Hour
	defaultScriptsPollPeriod = 30 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from .env, environment variables and flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		ChatAPIURL:        getString(lookup, "CHAT_API_URL", ""),
		WebhookSecret:     getString(lookup, "WEBHOOK_SECRET", ""),
		EscalationChatID:  getInt64(lookup, "ESCALATION_CHAT_ID", 0),
		ScriptsFile:       getString(lookup, "SCRIPTS_FILE", defaultScriptsFile),
		AdminsFile:        getString(lookup, "ADMINS_FILE", defaultAdminsFile),
		LockFile:          getString(lookup, "LOCK_FILE", defaultLockFile),
		RedisAddr:         getString(lookup, "REDIS_ADDR", ""),
		KafkaBrokers:      splitCSV(getString(lookup, "KAFKA_BROKERS", "")),
		SessionTTL:        getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		ScriptsPollPeriod: getDuration(lookup, "SCRIPTS_POLL_PERIOD", defaultScriptsPollPeriod),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("bankdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sessionTTLStr      = cfg.SessionTTL.String()
		pollPeriodStr      = cfg.ScriptsPollPeriod.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		brokersStr         = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.ChatAPIURL, "c", cfg.ChatAPIURL, "Chat API base URL")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", cfg.WebhookSecret, "Shared secret for incoming webhook requests")
	fs.Int64Var(&cfg.EscalationChatID, "escalation-chat", cfg.EscalationChatID, "Chat id of the escalation channel")
	fs.StringVar(&cfg.ScriptsFile, "scripts", cfg.ScriptsFile, "Path to the instruction scripts YAML file")
	fs.StringVar(&cfg.AdminsFile, "admins", cfg.AdminsFile, "Path to the administrator allow-list file")
	fs.StringVar(&cfg.LockFile, "lock-file", cfg.LockFile, "Path to the double-start guard lock file")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the session cache (optional)")
	fs.StringVar(&brokersStr, "kafka-brokers", brokersStr, "Kafka brokers for order events (optional)")
	fs.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "Session cache entry lifetime")
	fs.StringVar(&pollPeriodStr, "scripts-poll", pollPeriodStr, "Scripts file reload check period")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.KafkaBrokers = splitCSV(brokersStr)

	var err error

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	if cfg.ScriptsPollPeriod, err = time.ParseDuration(pollPeriodStr); err != nil {
		return nil, fmt.Errorf("invalid scripts poll period: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.ScriptsPollPeriod <= 0 {
		cfg.ScriptsPollPeriod = defaultScriptsPollPeriod
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.ChatAPIURL == "" {
		return nil, fmt.Errorf("chat API URL must be provided")
	}

	if cfg.EscalationChatID == 0 {
		return nil, fmt.Errorf("escalation chat id must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt64(lookup envLookup, key string, def int64) int64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
