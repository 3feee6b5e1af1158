package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vanrental/internal/admin"
	"vanrental/internal/analytics"
	"vanrental/internal/auth"
	"vanrental/internal/bookings"
	"vanrental/internal/faq"
	"vanrental/internal/recommend"
	"vanrental/internal/vans"
	"vanrental/internal/vectorstore"
	"vanrental/pkg/config"
	"vanrental/pkg/health"
	"vanrental/pkg/kafka"
	"vanrental/pkg/logger"
	"vanrental/pkg/metrics"
	"vanrental/pkg/middleware"
	"vanrental/pkg/postgres"
	pkgredis "vanrental/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting van rental service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	store := vectorstore.New(
		vectorstore.WithMaxChunkChars(cfg.FAQ.MaxChunkChars),
		vectorstore.WithRelevanceFloor(cfg.FAQ.RelevanceFloor),
	)
	faqSvc := faq.NewService(store, cfg.FAQ)
	if err := faqSvc.EnsureReady(ctx); err != nil {
		// Not fatal: the first question retries the load.
		slog.Warn("faq corpus warm-up failed", "error", err)
	} else {
		stats := store.Stats()
		slog.Info("faq corpus loaded", "chunks", stats.ChunkCount, "vocabulary", stats.VocabularySize)
	}

	var answerCache *faq.AnswerCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, answer caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		answerCache = faq.NewAnswerCache(redisClient, cfg.Redis)
		slog.Info("answer cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			if err := metricsShutdown(context.Background()); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
		slog.Info("metrics server started", "port", cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pg.DB.PingContext(ctx); err != nil {
			return health.Down(err)
		}
		return health.Up("")
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.Degraded("not configured")
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.Degraded(err.Error())
		}
		return health.Up("")
	})
	checker.Register("faq_index", func(ctx context.Context) health.ComponentHealth {
		stats := store.Stats()
		if !stats.Initialized {
			return health.Degraded("corpus not loaded")
		}
		return health.Up(fmt.Sprintf("%d chunks indexed", stats.ChunkCount))
	})

	tokens := auth.NewTokenManager(cfg.Auth)
	requireAuth := auth.Required(tokens)
	optionalAuth := auth.Optional(tokens)

	authHandler := auth.NewHandler(auth.NewStore(pg.DB), tokens, cfg.Auth.BcryptCost)
	vansHandler := vans.NewHandler(vans.NewStore(pg.DB))
	bookingsHandler := bookings.NewHandler(bookings.NewStore(pg.DB), collector, m)
	recommendHandler := recommend.NewHandler(recommend.NewService(pg.DB))
	adminHandler := admin.NewHandler(admin.NewStore(pg.DB))
	faqHandler := faq.NewHandler(faqSvc, answerCache, collector, m, cfg.FAQ.MaxQuestionLen)

	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(adminHandler.RequireAdmin(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/faq", faqHandler.Ask)
	mux.HandleFunc("GET /api/faq/stats", faqHandler.Stats)
	mux.HandleFunc("GET /api/faq/health", faqHandler.Health)
	mux.Handle("POST /api/faq/reload", requireAdmin(faqHandler.Reload))

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.HandleFunc("GET /api/vans", vansHandler.List)
	mux.HandleFunc("GET /api/vans/{id}", vansHandler.Get)
	mux.Handle("POST /api/vans/{id}/description", requireAdmin(vansHandler.GenerateDescription))
	mux.Handle("POST /api/vans/descriptions/fill-missing", requireAdmin(vansHandler.FillMissingDescriptions))

	mux.HandleFunc("GET /api/bookings/availability", bookingsHandler.Availability)
	mux.Handle("POST /api/bookings", requireAuth(http.HandlerFunc(bookingsHandler.Create)))
	mux.Handle("GET /api/bookings", requireAuth(http.HandlerFunc(bookingsHandler.ListMine)))
	mux.Handle("PATCH /api/bookings/{id}/cancel", requireAuth(http.HandlerFunc(bookingsHandler.Cancel)))

	mux.Handle("POST /api/recommendations", optionalAuth(http.HandlerFunc(recommendHandler.Recommend)))
	mux.Handle("GET /api/recommendations/personalized", optionalAuth(http.HandlerFunc(recommendHandler.PersonalizedRecommendations)))
	mux.Handle("GET /api/recommendations/history", optionalAuth(http.HandlerFunc(recommendHandler.History)))
	mux.HandleFunc("POST /api/recommendations/analyze", recommendHandler.Analyze)

	mux.Handle("GET /api/admin/stats", requireAdmin(adminHandler.Stats))
	mux.Handle("GET /api/admin/users", requireAdmin(adminHandler.ListUsers))
	mux.Handle("PATCH /api/admin/users/{id}", requireAdmin(adminHandler.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", requireAdmin(adminHandler.DeleteUser))
	mux.Handle("GET /api/admin/vans", requireAdmin(adminHandler.ListVans))
	mux.Handle("POST /api/admin/vans", requireAdmin(adminHandler.CreateVan))
	mux.Handle("PATCH /api/admin/vans/{id}", requireAdmin(adminHandler.UpdateVan))
	mux.Handle("DELETE /api/admin/vans/{id}", requireAdmin(adminHandler.DeleteVan))
	mux.Handle("GET /api/admin/bookings", requireAdmin(adminHandler.ListBookings))
	mux.Handle("PATCH /api/admin/bookings/{id}/status", requireAdmin(adminHandler.UpdateBookingStatus))

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("van rental service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("van rental service stopped")
}
