package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Luciism/statalytics/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	HypixelAPIKey string
	DBPath        string
	AdminPort     string

	SweepInterval   time.Duration
	SweepWorkers    int
	ProviderSpacing time.Duration

	// WeeklyAnchorDay is the weekday weekly rotations reset on.
	WeeklyAnchorDay time.Weekday

	// Automatic reset policy.
	ResetWhitelistOnly bool
	ResetWhitelist     []string
	ResetRequiredPerms []string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		HypixelAPIKey:      getEnv("HYPIXEL_API_KEY", ""),
		DBPath:             getEnv("DB_PATH", "statalytics.db"),
		AdminPort:          getEnv("ADMIN_PORT", "8080"),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", constants.DefaultSweepInterval),
		SweepWorkers:       getEnvInt("SWEEP_WORKERS", constants.DefaultSweepWorkers),
		ProviderSpacing:    getEnvDuration("PROVIDER_MIN_SPACING", constants.ProviderMinSpacing),
		WeeklyAnchorDay:    time.Weekday(getEnvInt("WEEKLY_ANCHOR_DAY", int(time.Sunday))),
		ResetWhitelistOnly: getEnvBool("RESET_WHITELIST_ONLY", false),
		ResetWhitelist:     getEnvList("RESET_WHITELIST"),
		ResetRequiredPerms: getEnvList("RESET_REQUIRED_PERMS"),
	}

	if cfg.HypixelAPIKey == "" {
		return nil, fmt.Errorf("HYPIXEL_API_KEY is required")
	}
	if cfg.WeeklyAnchorDay < time.Sunday || cfg.WeeklyAnchorDay > time.Saturday {
		return nil, fmt.Errorf("WEEKLY_ANCHOR_DAY must be in [0, 6]")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("admin_port", cfg.AdminPort).
		Dur("sweep_interval", cfg.SweepInterval).
		Int("sweep_workers", cfg.SweepWorkers).
		Dur("provider_spacing", cfg.ProviderSpacing).
		Str("weekly_anchor_day", cfg.WeeklyAnchorDay.String()).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var Module = fx.Provide(Load)
