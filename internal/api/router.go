package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/myuop2024/pollwatch/internal/api/handlers/http/alerts"
	"github.com/myuop2024/pollwatch/internal/api/handlers/http/system"
	"github.com/myuop2024/pollwatch/internal/config"
	"github.com/myuop2024/pollwatch/internal/middleware"
	"github.com/myuop2024/pollwatch/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service) *Server {
	alertHandler := alerts.NewHandler(logger, svc.AlertService, svc.LifecycleService, svc.StatsService)
	systemHandler := system.NewHandler(logger)

	r := InitRouter(cfg, alertHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(cfg *config.Config, alertHandler *alerts.Handler, systemHandler *system.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		readLimit := middleware.Limit(20, 40, 5*time.Minute, logger)
		writeAuth := middleware.APIKeyMiddleware(cfg.APIKey)
		writeLimit := middleware.Limit(5, 10, 10*time.Minute, logger)

		api.Route("/alerts", func(ar chi.Router) {
			// observer-facing reads, polled every few seconds
			ar.With(readLimit).Get("/", alertHandler.AlertList)
			ar.With(readLimit).Get("/stats", alertHandler.AlertStats)

			ar.With(writeAuth, writeLimit).Post("/", alertHandler.AlertCreate)

			ar.Route("/{id}", func(ir chi.Router) {
				ir.With(readLimit).Get("/", alertHandler.AlertGet)
				ir.With(readLimit).Get("/dispatches", alertHandler.AlertDispatches)

				ir.Group(func(wr chi.Router) {
					wr.Use(writeAuth)
					wr.Use(writeLimit)

					wr.Post("/acknowledge", alertHandler.AlertAcknowledge)
					wr.Post("/resolve", alertHandler.AlertResolve)
					wr.Post("/escalate", alertHandler.AlertEscalate)
					wr.Post("/redispatch", alertHandler.AlertRedispatch)
				})
			})
		})

		api.Get("/health", systemHandler.SystemHealth)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
