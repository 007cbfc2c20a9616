package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/authkit/internal/config"
	"github.com/me/authkit/internal/logging"
	"github.com/me/authkit/internal/mockapi"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default ./authkit-mockapi.yaml or ~/.authkit/authkit-mockapi.yaml)")
	addr := flag.String("addr", "", "Listen address")
	tokenTTL := flag.Duration("token-ttl", 0, "Lifetime of issued tokens")
	adminEmail := flag.String("admin-email", "", "Seed an administrator with this email")
	adminPassword := flag.String("admin-password", "", "Password of the seeded administrator")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	v := config.NewMockAPIViper(*configFile)
	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			v.Set("addr", *addr)
		case "token-ttl":
			v.Set("token_ttl", *tokenTTL)
		case "admin-email":
			v.Set("admin_email", *adminEmail)
		case "admin-password":
			v.Set("admin_password", *adminPassword)
		case "log-level":
			v.Set("log_level", *logLevel)
		case "log-format":
			v.Set("log_format", *logFormat)
		}
	})

	cfg, err := config.LoadMockAPIConfig(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	srv, err := mockapi.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create server: %v\n", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock API starting", "addr", cfg.Addr, "token_ttl", cfg.TokenTTL.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
