package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/inquotus/marketplace-api/internal/api"
	"github.com/inquotus/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/inquotus/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/inquotus/marketplace-api/internal/infrastructure/db/redis"
	"github.com/inquotus/marketplace-api/internal/infrastructure/notify"
	"github.com/inquotus/marketplace-api/pkg/logger"
)

// @title        Inquotus Marketplace API
// @version      1.0
// @description  Job-listing marketplace with paid, time-decaying contact unlocks.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	identityRepo := mongodb.NewIdentityRepository(db)
	listingRepo := mongodb.NewListingRepository(db)
	unlockRepo := mongodb.NewUnlockRepository(db)
	for _, ensure := range []func(context.Context) error{
		identityRepo.EnsureIndexes,
		listingRepo.EnsureIndexes,
		unlockRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index bootstrap failed")
		}
	}

	// --- Notifications (async, decoupled from the request path) ---
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	dispatcher := notify.NewDispatcher(
		cfg.Notify.Workers,
		listingRepo,
		identityRepo,
		redisdb.NewBroadcastDedup(rdb),
		mailer,
		logger.Component("notify"),
	)
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(db, rdb, cfg.JWTSecret, dispatcher, logger.Component("http"))

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("marketplace api started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
