package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babymonitor/internal/server"
	"babymonitor/internal/shared"

	"github.com/lmittmann/tint"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := shared.LoadServerConfig(*envFile)
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(log)

	log.Info("starting", "environment", cfg.Environment(), "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("open store", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	api := &server.API{
		Store:    store,
		APIKey:   cfg.APIKey,
		DeviceID: cfg.DeviceID,
		Log:      log,
	}

	if cfg.MQTTAddr != "" {
		broker, err := server.NewBroker(cfg.MQTTAddr, api, log.With("component", "mqtt"))
		if err != nil {
			log.Error("mqtt broker", "err", err)
			os.Exit(1)
		}
		api.Sink = broker
		if err := broker.Serve(); err != nil {
			log.Error("mqtt serve", "addr", cfg.MQTTAddr, "err", err)
			os.Exit(1)
		}
		defer broker.Close()
		log.Info("mqtt ingress listening", "addr", cfg.MQTTAddr, "topic", shared.TopicUpdate)
	}

	srv := &http.Server{
		Addr: "0.0.0.0:" + cfg.Port,
		Handler: server.NewRouter(api, server.RouterOptions{
			Production:     cfg.Production,
			AllowedOrigins: cfg.AllowedOrigins,
			AccessLog:      os.Stdout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	log.Info("listening", "url", "http://0.0.0.0:"+cfg.Port, "local", "http://localhost:"+cfg.Port)
	if cfg.Production {
		log.Info("production mode", "allowed_origins", cfg.AllowedOrigins)
	}
	log.Info("credentials", "api_key", shared.MaskSecret(cfg.APIKey), "device_id", cfg.DeviceID)
	log.Info("ready to receive sensor data")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			closeStore()
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
		log.Info("server closed")
	}
}

func openStore(ctx context.Context, cfg *shared.ServerConfig, log *slog.Logger) (server.Store, func(), error) {
	if cfg.Store != "sqlite" {
		return server.NewMemoryStore(time.Now()), func() {}, nil
	}

	db, err := server.OpenDB(cfg.SQLiteDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := server.RunMigrations(db, log); err != nil {
		db.Close()
		return nil, nil, err
	}
	store, err := server.NewSQLiteStore(ctx, db, time.Now())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("sqlite store", "dsn", cfg.SQLiteDSN)
	return store, func() { db.Close() }, nil
}
