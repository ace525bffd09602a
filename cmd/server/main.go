package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/api"
	"github.com/sketchify/sketchify/backend-go/internal/config"
	mw "github.com/sketchify/sketchify/backend-go/internal/middleware"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/session"
	"github.com/sketchify/sketchify/backend-go/internal/snapshot"
	"github.com/sketchify/sketchify/backend-go/internal/stream"
)

const reapInterval = time.Minute

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fonts, err := render.NewFontBook()
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}

	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set, analysis requests will fail")
	}
	gemini := analysis.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.AnalysisTimeout)

	sessions := session.NewManager(session.Options{
		HistoryLimit: cfg.HistoryLimit,
		TTL:          cfg.SessionTTL,
		Measurer:     fonts,
		Analysis:     gemini,
	}, slog.Default())
	go sessions.Run(ctx, reapInterval)

	exporter := &session.Exporter{
		Rasterizer: render.NewRasterizer(fonts),
		Measurer:   fonts,
		Width:      cfg.ExportWidth,
		Height:     cfg.ExportHeight,
	}

	hub := stream.NewHub(sessions, exporter)
	go hub.Run(ctx)

	snapshots, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		slog.Error("open snapshot store", "error", err)
		os.Exit(1)
	}
	sessions.OnRemove(snapshots.RemoveSession)

	handler := api.NewHandler(api.Deps{
		Sessions:  sessions,
		Tokens:    session.NewTokens(cfg.TokenSecret, cfg.TokenTTL),
		Exporter:  exporter,
		Snapshots: snapshots,
		Hub:       hub,
		Origins:   cfg.OriginHosts(),
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	handler.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r), // outside the router so preflights always get an answer
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "model", cfg.GeminiModel)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
