// Package config reads settings from the environment, after loading any
// .env.local or .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "BLOOM_"

type Config struct {
	ListenAddr string

	Backend     string
	DBPath      string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string

	Timezone      string
	InsightWindow int
	WeeklyGoal    int

	CacheRetention time.Duration
	PruneEvery     time.Duration

	ResponseDelay  time.Duration
	ResponseJitter time.Duration
	ContentPacing  time.Duration

	VoiceCatalog   string
	CatalogTimeout time.Duration
	SpeechTimeout  time.Duration
	SpeechCommand  string

	SessionTTL time.Duration

	LogLevel  string
	LogFormat string
}

// DotEnvFiles are tried in order. godotenv never overrides variables that
// are already set, so the first file wins over later ones.
var DotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the files that exist and returns the ones it loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Load reads .env files then the environment. Set BLOOM_DOTENV=off to skip
// the files.
func Load() (Config, error) {
	if !getenvBool(prefix+"DOTENV", true) {
		return FromEnv(), nil
	}
	if _, err := LoadDotEnv(DotEnvFiles...); err != nil {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		ListenAddr: getenv(prefix+"LISTEN_ADDR", ":8080"),

		Backend:     getenv(prefix+"BACKEND", "sqlite"),
		DBPath:      getenv(prefix+"DB_PATH", "bloom.db"),
		RedisAddr:   getenv(prefix+"REDIS_ADDR", "localhost:6379"),
		RedisPass:   os.Getenv(prefix + "REDIS_PASSWORD"),
		RedisDB:     getenvInt(prefix+"REDIS_DB", 0),
		RedisPrefix: getenv(prefix+"REDIS_PREFIX", "bloom"),

		Timezone:      os.Getenv(prefix + "TIMEZONE"),
		InsightWindow: getenvInt(prefix+"INSIGHT_WINDOW", 14),
		WeeklyGoal:    getenvInt(prefix+"WEEKLY_GOAL", 5),

		CacheRetention: getenvDuration(prefix+"CACHE_RETENTION", 90*24*time.Hour),
		PruneEvery:     getenvDuration(prefix+"PRUNE_EVERY", 24*time.Hour),

		ResponseDelay:  getenvDuration(prefix+"RESPONSE_DELAY", 1500*time.Millisecond),
		ResponseJitter: getenvDuration(prefix+"RESPONSE_JITTER", 2*time.Second),
		ContentPacing:  getenvDuration(prefix+"CONTENT_PACING", 0),

		VoiceCatalog:   os.Getenv(prefix + "VOICE_CATALOG"),
		CatalogTimeout: getenvDuration(prefix+"CATALOG_TIMEOUT", 2*time.Second),
		SpeechTimeout:  getenvDuration(prefix+"SPEECH_TIMEOUT", 15*time.Second),
		SpeechCommand:  os.Getenv(prefix + "SPEECH_COMMAND"),

		SessionTTL: getenvDuration(prefix+"SESSION_TTL", 30*time.Minute),

		LogLevel:  getenv(prefix+"LOG_LEVEL", "info"),
		LogFormat: getenv(prefix+"LOG_FORMAT", "text"),
	}
}

// Location resolves Timezone; empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return NewLogger(w, c.LogLevel, c.LogFormat)
}

func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "off", "no":
		return false
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
