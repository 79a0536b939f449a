/*
Package config loads server configuration from the environment.

PURPOSE:
  Single place where environment variables are read. Everything else
  receives typed values (rates, caps, *time.Location, auth secrets)
  through constructors.

VARIABLES:
  PORT                        HTTP port (default 8080)
  DATABASE_PATH               SQLite path, ":memory:" allowed (default fitcoin.db)
  TIMEZONE                    IANA zone for the daily window (default UTC)
  REWARD_PER_1000_STEPS       Coins per 1000 steps (default 10)
  REWARD_PER_WORKOUT_MINUTE   Coins per workout minute (default 5)
  MAX_DAILY_STEP_REWARDS      Daily cap on step rewards (default 100)
  MAX_DAILY_WORKOUT_REWARDS   Daily cap on workout rewards (default 100)
  JWT_ACCESS_SECRET           Access token signing secret
  JWT_REFRESH_SECRET          Refresh token signing secret
  JWT_ACCESS_TTL              Access token lifetime (default 15m)
  JWT_REFRESH_TTL             Refresh token lifetime (default 168h)
  KAKAO_CLIENT_ID             Kakao OAuth app ID
  KAKAO_CLIENT_SECRET         Kakao OAuth app secret
  KAKAO_REDIRECT_URI          Registered redirect URI
  ALLOWED_ORIGINS             CORS origins, comma separated
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/fitcoin/reward-engine/auth"
	"github.com/fitcoin/reward-engine/ledger"
)

// Config holds all server settings.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"fitcoin.db"`
	Timezone     string `env:"TIMEZONE" envDefault:"UTC"`

	RewardPer1000Steps     int64 `env:"REWARD_PER_1000_STEPS" envDefault:"10"`
	RewardPerWorkoutMinute int64 `env:"REWARD_PER_WORKOUT_MINUTE" envDefault:"5"`
	MaxDailyStepRewards    int64 `env:"MAX_DAILY_STEP_REWARDS" envDefault:"100"`
	MaxDailyWorkoutRewards int64 `env:"MAX_DAILY_WORKOUT_REWARDS" envDefault:"100"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"dev-access-secret"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"dev-refresh-secret"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	KakaoClientID     string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret string `env:"KAKAO_CLIENT_SECRET"`
	KakaoRedirectURI  string `env:"KAKAO_REDIRECT_URI"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Rates returns the pricing rates.
func (c Config) Rates() ledger.Rates {
	return ledger.Rates{
		Per1000Steps:     c.RewardPer1000Steps,
		PerWorkoutMinute: c.RewardPerWorkoutMinute,
	}
}

// Caps returns the daily reward caps.
func (c Config) Caps() ledger.DailyCaps {
	return ledger.DailyCaps{
		Steps:   ledger.NewCoins(c.MaxDailyStepRewards),
		Workout: ledger.NewCoins(c.MaxDailyWorkoutRewards),
	}
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AuthConfig returns the token signing parameters.
func (c Config) AuthConfig() auth.Config {
	return auth.Config{
		AccessSecret:  c.JWTAccessSecret,
		RefreshSecret: c.JWTRefreshSecret,
		AccessTTL:     c.JWTAccessTTL,
		RefreshTTL:    c.JWTRefreshTTL,
	}
}

// KakaoConfig returns the OAuth provider settings.
func (c Config) KakaoConfig() auth.KakaoConfig {
	return auth.KakaoConfig{
		ClientID:     c.KakaoClientID,
		ClientSecret: c.KakaoClientSecret,
		RedirectURI:  c.KakaoRedirectURI,
	}
}
