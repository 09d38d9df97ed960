// cmd/librarium/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/covers"
	"librarium/internal/dashboard"
	"librarium/internal/identity"
	"librarium/internal/ledgerlog"
	"librarium/internal/lending"
	"librarium/internal/middleware"
	"librarium/internal/postgres"
)

func main() {
	root := &cobra.Command{
		Use:           "librarium",
		Short:         "Library management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	coverStore, err := covers.NewDiskStore(cfg.CoverDir)
	if err != nil {
		return err
	}

	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	identitySvc := identity.NewService(db, tokens, cfg.StaffSignupCode)
	auditLog := ledgerlog.New(db)
	catalogSvc := catalog.NewService(db)
	lendingSvc := lending.NewService(db, auditLog)
	dashboardSvc := dashboard.NewService(db)

	identityHandler := identity.NewHandler(identitySvc)
	catalogHandler := catalog.NewHandler(catalogSvc, coverStore)
	lendingHandler := lending.NewHandler(lendingSvc)
	dashboardHandler := dashboard.NewHandler(dashboardSvc, auditLog)

	auth := middleware.NewAuthenticator(tokens, identitySvc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRateLimiter(rate.Limit(10), 30).Limit)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", identityHandler.HandleSignup)
		r.Post("/auth/login", identityHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/auth/password", identityHandler.HandleChangePassword)

			r.Get("/books", catalogHandler.HandleListBooks)
			r.Get("/books/available", catalogHandler.HandleAvailableBooks)
			r.Get("/books/{bookID}", catalogHandler.HandleGetBook)
			r.Get("/books/{bookID}/cover", catalogHandler.HandleGetCover)

			r.Post("/loans/borrow/{bookID}", lendingHandler.HandleBorrow)
			r.Post("/loans/return/{bookID}", lendingHandler.HandleReturn)
			r.Get("/loans/mine", lendingHandler.HandleMyLoans)
			r.Get("/loans/history", lendingHandler.HandleHistory)
			r.Get("/loans/fines", lendingHandler.HandleFines)

			r.Get("/me/summary", dashboardHandler.HandleMemberSummary)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff)

				r.Post("/books", catalogHandler.HandleAddBook)
				r.Put("/books/{bookID}", catalogHandler.HandleUpdateBook)
				r.Delete("/books/{bookID}", catalogHandler.HandleDeleteBook)
				r.Post("/books/{bookID}/cover", catalogHandler.HandleUploadCover)

				r.Get("/dashboard", dashboardHandler.HandleStaffSummary)
				r.Get("/dashboard/activity", dashboardHandler.HandleActivity)
				r.Get("/members", identityHandler.HandleListMembers)
				r.Post("/loans/reconcile", lendingHandler.HandleReconcile)
			})
		})
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
	}
	return nil
}

func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			db, err := postgres.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			slog.Info("schema applied")
			return nil
		},
	}
}
