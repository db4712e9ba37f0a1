package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/auth"
	"github.com/inamate/stamps/internal/collab"
	"github.com/inamate/stamps/internal/config"
	"github.com/inamate/stamps/internal/engine"
	"github.com/inamate/stamps/internal/export"
	mw "github.com/inamate/stamps/internal/middleware"
	"github.com/inamate/stamps/internal/project"
	"github.com/inamate/stamps/internal/store"
	"github.com/inamate/stamps/internal/typeid"
)

func main() {
	os.Exit(run())
}

func run() int {
	printToken := flag.Bool("print-token", false, "print a session token for AUTH_SECRET and exit")
	hashPassword := flag.String("hash-password", "", "print the AUTH_PASSWORD_HASH value for a password and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	authService := auth.NewService(cfg.AuthSecret, cfg.AuthPassword)
	switch {
	case *hashPassword != "":
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			slog.Error("hash password", "error", err)
			return 1
		}
		fmt.Println(hash)
		return 0
	case *printToken:
		if !authService.Enabled() {
			slog.Error("AUTH_SECRET is not set")
			return 1
		}
		session, err := authService.Issue(typeid.NewSessionID())
		if err != nil {
			slog.Error("issue token", "error", err)
			return 1
		}
		fmt.Println(session.Token)
		return 0
	}

	lib, err := asset.Load(cfg.AssetDir)
	if err != nil {
		slog.Error("load assets", "error", err, "dir", cfg.AssetDir)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		docStore store.Store = store.NewFileStore(cfg.SavePath)
		history  project.History
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			return 1
		}
		defer pg.Close()
		docStore = &store.Mirror{Primary: docStore, Secondary: pg}
		history = pg
	}

	svg := store.LoadOrDefault(ctx, docStore, cfg.DocWidth, cfg.DocHeight)
	eng := engine.New(lib, svg, docStore, cfg.Width, cfg.Height)

	hub := collab.NewHub(eng)
	eng.Observe(hub.BroadcastFrame)
	go hub.Run()

	authHandler := auth.NewHandler(authService)
	projectHandler := project.NewHandler(project.NewService(eng, history))
	assetHandler := asset.NewHandler(cfg.AssetDir, eng)
	exportHandler := export.NewHandler(eng)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	projectHandler.Routes(api)
	api.HandleFunc("/stamps", assetHandler.List).Methods("GET")
	api.HandleFunc("/stamps", assetHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/stamps/{name:.+}", assetHandler.Get).Methods("GET")

	exports := r.PathPrefix("/export").Subrouter()
	exports.Use(authService.AuthMiddleware)
	exports.HandleFunc("/svg", exportHandler.ExportSVG).Methods("GET")
	exports.HandleFunc("/png", exportHandler.ExportPNG).Methods("GET")

	// WebSocket endpoint
	r.Handle("/ws", authService.AuthMiddleware(hub.ServeWS(cfg.Origins())))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "auth", authService.Enabled(), "snapshots", history != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case <-eng.Done():
		slog.Info("quit requested, shutting down server")
	case err := <-eng.Failed():
		slog.Error("cannot continue without saving", "error", err)
		code = 1
	case err := <-srvErr:
		slog.Error("server error", "error", err)
		code = 1
	}

	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}

	if code == 0 {
		if err := eng.Save(shutdownCtx); err != nil {
			slog.Error("final save", "error", err)
			code = 1
		}
	}
	return code
}
