package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/pagemark/internal/auth"
	"github.com/inamate/pagemark/internal/collab"
	"github.com/inamate/pagemark/internal/config"
	mw "github.com/inamate/pagemark/internal/middleware"
	"github.com/inamate/pagemark/internal/session"
	"github.com/inamate/pagemark/internal/typeid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authService := auth.NewService(cfg.JWTSecret, cfg.SessionTTL)
	authHandler := auth.NewHandler(authService)

	sessions := session.NewManager(cfg.EngineOptions(), cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	hub := collab.NewHub(func(sessionID string) (collab.Target, error) {
		return sessions.Get(sessionID)
	})
	go hub.Run(ctx)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Sessions: opening one is public and returns its token; everything
	// under a session id needs that token.
	protected := session.NewHandler(sessions, authService, cfg.MaxUploadBytes).Register(r, authService.Middleware)
	protected.HandleFunc("/token", authHandler.Refresh).Methods("POST", "OPTIONS")

	// WebSocket endpoint; browsers pass the token as a query parameter
	ws := r.PathPrefix("/ws/sessions/{sessionId}").Subrouter()
	ws.Use(authService.Middleware)
	ws.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, sessions, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

		// Stop the hub first so clients are closed before the listener
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, sessions *session.Manager, allowedOrigins string) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, err := sessions.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	var patterns []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, sessionID, typeid.NewClientID())

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
