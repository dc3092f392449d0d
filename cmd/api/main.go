package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/localmart/localmart-backend/internal/config"
	"github.com/localmart/localmart-backend/internal/db"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/server"
	"github.com/localmart/localmart-backend/internal/service"
	"github.com/localmart/localmart-backend/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	var uploader service.ImageUploader
	if cfg.StorageBucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		up, err := storage.NewUploader(ctx, cfg.StorageBucket)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("storage init failed, image upload disabled")
		} else {
			uploader = up
		}
	}

	srv := server.New(nil, cfg, uploader, log.Logger)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.Start(addr)
	}()

	// The database may come up after the process (Cloud Run cold start with
	// Cloud SQL); connect in the background and inject when ready.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Error().Err(err).Msg("db connect failed")
			return
		}
		srv.SetDB(conn)
		if err := conn.AutoMigrate(
			&model.User{},
			&model.Seller{},
			&model.Product{},
			&model.Order{},
			&model.Conversation{},
			&model.ConversationRead{},
			&model.Message{},
			&model.Notification{},
		); err != nil {
			log.Warn().Err(err).Msg("auto migrate failed")
		}
		log.Info().Msg("database ready")
	}()

	if err := <-errCh; err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
