package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"tickets/internal/app"
	"tickets/internal/config"
	"tickets/internal/observability"
)

func main() {
	logger := zerolog.New(os.Stdout)

	observability.InitLogging(logrus.InfoLevel)
	watermillLogger := observability.NewWatermillLogrusAdapter(
		logrus.NewEntry(logrus.StandardLogger()),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := sqlx.Connect("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to postgres")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(cfg, watermillLogger, redisClient, db)
	if err != nil {
		logger.Fatal().Err(err).Msg("building application")
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("application stopped with error")
	}
}
