// Package config builds the bot's immutable runtime configuration from the
// environment. There are no process-wide mutable singletons: FromEnv is
// called once at startup and the resulting struct is passed into components.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vacancybot/pkg/logx"
)

// Defaults mirror the production deployment: HH API pinned to the Tashkent
// area, legal-assistant queries, junior experience buckets.
const (
	DefaultBaseURL  = "https://api.hh.ru"
	DefaultAreaID   = "2759"
	DefaultInterval = 300 * time.Second
	DefaultDBPath   = "./vacancybot.db"
)

var (
	defaultQueries = []string{
		"младший юрист",
		"коммерческий юрист",
		"помощник юриста",
	}
	defaultExperience = []string{
		"noExperience",
		"between1And3",
	}
)

type Config struct {
	Telegram TelegramConfig
	Logging  logx.Config
	Store    StoreConfig
	HH       HHConfig
	Poll     PollConfig
}

type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
}

type StoreConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type HHConfig struct {
	BaseURL string
	AreaID  string
	Timeout time.Duration
}

type PollConfig struct {
	// Interval between cycles. POLL_SCHEDULE (cron or duration spec)
	// takes precedence when set.
	Interval time.Duration
	Schedule string

	WarmupDelay time.Duration

	Queries    []string
	Experience []string

	// SearchesFile optionally points at a YAML file overriding Queries and
	// Experience; the file is watched and hot-reloaded.
	SearchesFile string
}

// FromEnv reads configuration from the environment. The only hard
// requirement is the bot token; everything else falls back to defaults.
func FromEnv() (Config, error) {
	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if token == "" {
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}

	interval, err := secondsEnv("CHECK_INTERVAL", DefaultInterval)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Telegram: TelegramConfig{
			Token:       token,
			PollTimeout: 10 * time.Second,
		},
		Logging: logx.Config{
			Level:   getenv("LOG_LEVEL", "info"),
			Console: true,
			File: logx.FileConfig{
				Enabled: strings.TrimSpace(os.Getenv("LOG_FILE")) != "",
				Path:    strings.TrimSpace(os.Getenv("LOG_FILE")),
			},
		},
		Store: StoreConfig{
			Path:        getenv("DATABASE_PATH", DefaultDBPath),
			BusyTimeout: 5 * time.Second,
		},
		HH: HHConfig{
			BaseURL: getenv("HH_BASE_URL", DefaultBaseURL),
			AreaID:  getenv("HH_AREA_ID", DefaultAreaID),
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:     interval,
			Schedule:     strings.TrimSpace(os.Getenv("POLL_SCHEDULE")),
			WarmupDelay:  5 * time.Second,
			Queries:      listEnv("SEARCH_QUERIES", defaultQueries),
			Experience:   listEnv("EXPERIENCE_FILTERS", defaultExperience),
			SearchesFile: strings.TrimSpace(os.Getenv("SEARCHES_FILE")),
		},
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// secondsEnv parses an env var holding a number of seconds.
func secondsEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}

// listEnv parses a comma- or semicolon-separated list.
func listEnv(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	raw = strings.ReplaceAll(raw, ";", ",")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
