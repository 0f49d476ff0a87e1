package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	GiB = int64(1024 * 1024 * 1024)

	NormalVideoLimit  = 2 * GiB
	NormalAudioLimit  = 1 * GiB
	PremiumVideoLimit = 4 * GiB
	PremiumAudioLimit = 4 * GiB

	// Admission threshold: a task is not started unless at least this
	// much space is free in the temp directory.
	MinFreeDiskBytes = 2 * GiB
)

var (
	VideoFormats = []string{"mp4", "mkv", "mov", "avi"}
	AudioFormats = []string{"mp3", "aac", "wav", "m4a", "ogg"}
)

type Config struct {
	BotToken      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogChannelID  int64
	AdminIDs      []int64
	EncryptionKey []byte

	TempDir         string
	SessionTTLHours int

	// Upper bound on one full merge task (download + ffmpeg + upload).
	// Without it a stalled transfer or ffmpeg process holds the user's
	// slot forever.
	TaskTimeout time.Duration
}

func FromEnv() (*Config, error) {
	botToken := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	redisHost := getEnvDefault("REDIS_HOST", "localhost")
	redisPort := getEnvDefault("REDIS_PORT", "6379")

	cfg := &Config{
		BotToken:        botToken,
		PostgresDSN:     strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		TempDir:         getEnvDefault("TEMP_DIR", filepath.Join(os.TempDir(), "bot_merger")),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
		TaskTimeout:     time.Duration(getEnvInt("TASK_TIMEOUT_MINUTES", 30)) * time.Minute,
	}

	if v := strings.TrimSpace(os.Getenv("LOG_CHANNEL_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_CHANNEL_ID: %v", err)
		}
		cfg.LogChannelID = id
	}

	ids, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = ids

	key, err := parseEncryptionKey(os.Getenv("ENCRYPTION_KEY"))
	if err != nil {
		return nil, err
	}
	cfg.EncryptionKey = key

	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create temp dir %s: %v", cfg.TempDir, err)
	}

	return cfg, nil
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseEncryptionKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not set")
	}
	key, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %v", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnvDefault(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
