// Command crapette-server runs the authoritative Crapette game server:
// guest token issuance over HTTP and game sessions over WebSockets.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"crapette/internal/auth"
	"crapette/internal/config"
	"crapette/internal/database"
	"crapette/internal/history"
	"crapette/internal/server"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	authSvc, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("auth setup failed")
	}

	hist := history.NewPublisher(cfg.RedisAddr)
	if hist != nil {
		log.WithField("addr", cfg.RedisAddr).Info("action history enabled")
		defer hist.Close()
	}

	archive, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database setup failed")
	}
	if archive != nil {
		log.Info("session archive enabled")
		defer archive.Close()
	}

	gw := server.NewGateway(log, authSvc, hist, archive)

	mux := http.NewServeMux()
	mux.HandleFunc("/guest", gw.HandleGuest)
	mux.HandleFunc("/ws", gw.HandleWS)

	log.WithField("addr", cfg.ListenAddr).Info("crapette server listening")
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
