package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"placement-storefront/config"
	"placement-storefront/database"
	"placement-storefront/handlers"
	"placement-storefront/middleware"
	"placement-storefront/queue"
	"placement-storefront/services/auth"
	"placement-storefront/services/cart"
	"placement-storefront/services/catalog"
	"placement-storefront/services/enrollment"
	"placement-storefront/services/payment"
	"placement-storefront/services/payment/cashfree"
	"placement-storefront/storage"
	"placement-storefront/worker"
)

const (
	sweepInterval   = 10 * time.Minute
	cartIdleAfter   = time.Hour
	handoffIdleTime = 2 * time.Hour
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

func connectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	healthChecks := map[string]storage.Pinger{}

	// Redis backs the job queue and the rate limiter. It is only mandatory
	// when it is also the storage backend.
	redisClient, err := connectRedis(cfg.Redis.URL)
	if err != nil {
		if cfg.Storage.Backend == config.StorageRedis {
			logger.Fatal("redis unavailable", zap.Error(err))
		}
		logger.Warn("running without redis: no expiry jobs or rate limiting", zap.Error(err))
		redisClient = nil
	}

	var persister storage.Persister
	var db *database.Connection
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		rp := storage.NewRedisPersisterFromClient(redisClient)
		persister = rp
		healthChecks["storage"] = rp
	case config.StorageMySQL:
		db, err = database.NewConnection(cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Fatal("failed to prepare database schema", zap.Error(err))
		}
		kv := database.NewKVPersister(db)
		persister = kv
		healthChecks["storage"] = kv
	default:
		persister = storage.NewMemoryPersister()
	}
	logger.Info("storage backend ready", zap.String("backend", cfg.Storage.Backend))

	var jobQueue *queue.Queue
	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		jobQueue = queue.NewQueue(redisClient, "storefront_jobs", logger.Named("queue"))
		rateLimiter = middleware.NewRateLimiter(redisClient, logger.Named("ratelimit"))
		healthChecks["redis"] = storage.NewRedisPersisterFromClient(redisClient)
	}

	source := catalog.NewClient(cfg.Server.BackendBaseURL, nil, logger.Named("catalog"))
	carts := cart.NewRegistry(persister, logger.Named("cart"))
	pending := enrollment.NewStore(persister, cfg.Enrollment.PendingTTL, logger.Named("enrollment"))
	if jobQueue != nil {
		pending.WithScheduler(jobQueue)
	}

	gateway := cashfree.NewClient(cfg.Server.BackendBaseURL, logger.Named("cashfree"))
	widget := cashfree.NewRelayWidget(logger.Named("widget"))
	loader := cashfree.NewSDKLoader(cfg.Cashfree.SDKURL, &http.Client{Timeout: 10 * time.Second}, logger.Named("sdk"))
	mode := payment.ParseMode(cfg.Cashfree.Environment)

	sessions := payment.NewSessions(gateway, widget, loader, pending, mode, logger.Named("handoff"))
	checkout := payment.NewCheckout(source, carts, payment.DefaultCurrency, logger.Named("checkout"))

	var expiryWorker *worker.Worker
	if jobQueue != nil {
		expiryWorker = worker.NewWorker(jobQueue, pending, logger.Named("worker"))
		expiryWorker.Start(cfg.Redis.WorkerConcurrency)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)
	cookieStore := middleware.NewCookieStore(cfg.Session.Secret, cfg.Session.Domain, cfg.Session.MaxAge, cfg.Session.Secure)

	h := &handlers.Handlers{
		Cart:       handlers.NewCartHandler(carts, source, logger.Named("http")),
		Events:     handlers.NewEventsHandler(carts, logger.Named("http")),
		Courses:    handlers.NewCourseHandler(source, logger.Named("http")),
		Checkout:   handlers.NewCheckoutHandler(checkout, sessions, widget, loader.URL(), logger.Named("http")),
		Enrollment: handlers.NewEnrollmentHandler(pending, logger.Named("http")),
		Health:     handlers.NewHealthHandler(healthChecks),
	}

	router := mux.NewRouter()
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.Profile(cookieStore, logger.Named("profile")))
	router.Use(middleware.OptionalAuth(jwtService, logger.Named("auth")))
	router.Use(middleware.RequestLogger(logger.Named("http")))

	var limit func(http.Handler) http.Handler
	if rateLimiter != nil {
		limit = rateLimiter.Limit("checkout", middleware.CheckoutLimit(cfg.RateLimit.Checkout))
	}
	h.Register(router, limit)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				c := carts.Sweep(cartIdleAfter)
				s := sessions.Sweep(handoffIdleTime)
				if c > 0 || s > 0 {
					logger.Debug("swept idle state", zap.Int("carts", c), zap.Int("handoffs", s))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        corsMiddleware(router),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("checkout_mode", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	stopSweeper()

	if expiryWorker != nil {
		expiryWorker.Stop()
	}
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("server exited properly")
}
