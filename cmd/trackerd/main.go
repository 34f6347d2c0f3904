package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/config"
	"github.com/Devindin/Issue-Tracker-sub001/internal/httpapi"
	"github.com/Devindin/Issue-Tracker-sub001/internal/obs"
	"github.com/Devindin/Issue-Tracker-sub001/internal/store/pg"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := pg.Open(cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	tokens, err := auth.NewTokens(cfg.Auth.TokenSecret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		log.Fatalf("auth tokens: %v", err)
	}

	svc, err := tracker.NewService(store, tokens)
	if err != nil {
		log.Fatalf("tracker service: %v", err)
	}

	api := httpapi.New(svc, tokens, httpapi.ReadyProbe{DB: store.DB()}, version,
		httpapi.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		httpapi.WithRateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		httpapi.WithCORSOrigins(cfg.HTTP.CORSOrigins),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting trackerd %s (%s) on %s", version, cfg.Env, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
