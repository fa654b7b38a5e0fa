package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/frost-bit-star/stackverify-bot/internal/backup"
	"github.com/frost-bit-star/stackverify-bot/internal/brain"
	"github.com/frost-bit-star/stackverify-bot/internal/chat"
	"github.com/frost-bit-star/stackverify-bot/internal/config"
	"github.com/frost-bit-star/stackverify-bot/internal/directory"
	"github.com/frost-bit-star/stackverify-bot/internal/httpapi"
	"github.com/frost-bit-star/stackverify-bot/internal/memory"
	"github.com/frost-bit-star/stackverify-bot/internal/observability"
	"github.com/frost-bit-star/stackverify-bot/internal/otp"
	"github.com/frost-bit-star/stackverify-bot/internal/session"
	"github.com/frost-bit-star/stackverify-bot/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer store.Close()

	registry, err := directory.NewRegistry(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("directory init failed: %v", err)
	}
	defer registry.Close()

	otps, err := otp.NewService(cfg.SQLitePath, cfg.OTPTTL)
	if err != nil {
		log.Fatalf("otp service init failed: %v", err)
	}
	defer otps.Close()

	adapter, err := brain.NewAdapter(brain.Config{
		Mode:    cfg.CompletionMode,
		URL:     cfg.CompletionURL,
		Timeout: cfg.CompletionTimeout,
	})
	if err != nil {
		log.Fatalf("completion adapter init failed: %v", err)
	}

	responder := chat.NewResponder(
		session.NewResolver(store),
		chat.NewSelector(store, cfg.HistoryCap, cfg.ShortHistoryCap),
		chat.NewGateway(adapter, store, metrics, cfg.SystemPrompt, cfg.HistoryCap),
		metrics,
	)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	var sender httpapi.Sender
	if cfg.WhatsAppEnabled {
		wa, err := whatsapp.NewClient(cfg.WhatsAppDBPath, responder, registry, metrics)
		if err != nil {
			log.Fatalf("whatsapp init failed: %v", err)
		}
		if err := wa.Connect(runCtx); err != nil {
			log.Fatalf("whatsapp connect failed: %v", err)
		}
		defer wa.Disconnect()
		sender = wa
	}

	if cfg.BackupEnabled {
		runner := backup.NewRunner(cfg.BackupDir, cfg.BackupRemote, cfg.BackupInterval, []string{
			cfg.SQLitePath,
			cfg.WhatsAppDBPath,
		})
		if err := runner.Init(runCtx); err != nil {
			log.Printf("backup init failed: %v", err)
		} else {
			go runner.Run(runCtx)
		}
	}

	api := httpapi.New(cfg, responder, registry, otps, sender, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
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

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
