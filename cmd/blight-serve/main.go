package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blight/internal/hostbridge"
	"blight/internal/session"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	tick := flag.Duration("tick", time.Second/30, "session tick period")
	verbose := flag.Bool("v", false, "debug logging")
	simCfg := session.DefaultConfig()
	simCfg.Bind(flag.CommandLine)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	simCfg.Logger = logger

	sess := session.New(simCfg)
	defer sess.Close()
	hub := hostbridge.NewHub(sess, hostbridge.Config{TickInterval: *tick, Logger: logger})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Print(err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Print(err)
	}
}
