package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prontoville/crust/internal/app"
	"github.com/prontoville/crust/internal/config"
)

var serveBindAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat ordering server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveBindAddr, "bind", "", "Bind address (overrides APP_BIND_ADDR)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveBindAddr != "" {
		cfg.BindAddr = serveBindAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: result.API.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
	return nil
}
