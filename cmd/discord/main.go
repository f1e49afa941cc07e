package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	zlog "github.com/rs/zerolog/log"

	"nbot/internal/bot"
	"nbot/internal/config"
	"nbot/internal/logging"
	"nbot/internal/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		logging.Init("info", "")
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFile)

	zlog.Info().Str("version", version.Version).Msgf("starting %s bot", version.AppName)

	b, err := bot.New(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create bot")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := b.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		zlog.Info().Str("signal", s.String()).Msg("received signal, shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			zlog.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	}

	zlog.Info().Msg("discord bot exited cleanly")
}
