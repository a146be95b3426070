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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/publica-dev/publica/pkg/publica"
	"github.com/publica-dev/publica/pkg/publica/api"
	"github.com/publica-dev/publica/pkg/publica/config"
	"github.com/publica-dev/publica/pkg/publica/transform"
)

func main() {
	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("failed to load server configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	server := &httpServer{
		service:   svc,
		transform: serverConfig.BuildTransformClient(),
		config:    serverConfig,
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.routes(),
	}

	go func() {
		slog.Info("publica server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.StorageType,
			"transform_enabled", serverConfig.TransformURL != "")

		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exiting")
}

type httpServer struct {
	service   publica.Service
	transform *transform.Client
	config    *config.ServerConfig
}

func (s *httpServer) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/filters", s.handleFilters)

	r.Route("/api/v1", func(r chi.Router) {
		handler := api.NewPublicationHandler(s.service, s.config.FeedLimit)
		r.Mount("/publications", handler.Routes())
	})

	return r
}

func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "healthy",
	}
	if s.transform != nil {
		health["transform"] = s.transform.Health(r.Context())
	}
	render.JSON(w, r, health)
}

// handleFilters proxies the transform service's filter discovery so clients
// don't have to reach the accelerator directly.
func (s *httpServer) handleFilters(w http.ResponseWriter, r *http.Request) {
	if s.transform == nil {
		render.JSON(w, r, map[string]interface{}{"filters": []string{}})
		return
	}

	filters, err := s.transform.Filters(r.Context())
	if err != nil {
		slog.Error("failed to list filters", "error", err)
		http.Error(w, "transform service unavailable", http.StatusBadGateway)
		return
	}

	render.JSON(w, r, map[string]interface{}{"filters": filters})
}
