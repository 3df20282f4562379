// Server entrypoint: wires stores, services and HTTP routes, then runs until
// interrupted. Every external dependency (postgres, redis, kafka) is optional;
// without it the process falls back to in-memory equivalents so a bare
// `go run ./cmd/server` serves a working API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	apphandler "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/handler"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/metrics"
	appservice "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/service"
	appstore "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/dashboard"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/document"
	dochandler "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/document/handler"
	jwttoken "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/jwt_token"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/config"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/httpserver"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/logger"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/middleware"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/postgres"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/redis"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/migrations"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, memory otherwise.
	var (
		applications appstore.Store = appstore.NewInMemory()
		documents    document.Store = document.NewInMemory()
		auditStore   audit.Store    = audit.NewInMemory()
	)
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()

		ddl, err := migrations.Schema()
		if err != nil {
			log.Error("load schema", "error", err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, ddl); err != nil {
			log.Error("apply schema", "error", err)
			os.Exit(1)
		}
		applications = appstore.NewPostgres(pool)
		documents = document.NewPostgres(pool)

		auditDB, err := audit.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Error("audit store connection failed", "error", err)
			os.Exit(1)
		}
		defer auditDB.Close()
		auditStore = auditDB
	}

	cache, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	var auditOpts []audit.Option
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka producer failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = sink.Close(context.Background()) }()
		auditOpts = append(auditOpts, audit.WithKafkaSink(sink))
	}
	auditor := audit.NewPublisher(auditStore, log, auditOpts...)

	// Services. The dashboard reads aggregates straight from the application
	// store and the application service drops its cache on every change.
	m := metrics.New()
	dash := dashboard.New(applications, cache, cfg.DashboardCacheTTL, log)
	apps := appservice.New(applications, auditor, log,
		appservice.WithDocumentSource(documents),
		appservice.WithMetrics(m),
		appservice.WithStatsInvalidator(dash),
	)
	docs := document.NewService(documents, apps, auditor, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))

	r.Get("/healthz", healthHandler(pool, cache))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		apphandler.New(apps, log).Register(r)
		dochandler.New(docs, log).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, domain.RoleOfficer, domain.RoleAdmin))
			dashboard.NewHandler(dash, log).Register(r)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("loan approval server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// healthHandler reports liveness plus the state of optional backends.
func healthHandler(pool *pgxpool.Pool, cache *redis.Client) http.HandlerFunc {
	type health struct {
		Status   string `json:"status"`
		Database string `json:"database,omitempty"`
		Cache    string `json:"cache,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := health{Status: "ok"}
		if pool != nil {
			resp.Database = "ok"
			if err := pool.Ping(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
			}
		}
		if cache != nil {
			resp.Cache = "ok"
			if err := cache.Health(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Cache = "unreachable"
			}
		}
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
