package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
)

// Config holds process-wide settings, loaded once at startup.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"LOG_FILE" envDefault:"nbot.log"`

	// Optional proxy for YouTube traffic (http, socks5 or socks4 URL).
	YouTubeProxy string `env:"YT_PROXY"`
}

// New loads configuration from .env (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zlog.Debug().Msg("no .env file found, using system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
