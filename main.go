package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keyboardquipo/auth"
	"keyboardquipo/booking"
	"keyboardquipo/config"
	"keyboardquipo/db"
	"keyboardquipo/middleware"
	"keyboardquipo/mq"
	"keyboardquipo/parts"
	"keyboardquipo/pay"
	"keyboardquipo/profile"
	"keyboardquipo/ratelim"
	"keyboardquipo/rdx"
	"keyboardquipo/reviews"
	"keyboardquipo/routes"
	"keyboardquipo/stripe"
	"keyboardquipo/users"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.UseMemoryStore() {
		log.Println("Using in-memory store")
		return db.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := db.Connect(ctx, cfg.MongoURI(), cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Printf("EnsureIndexes: %v", err)
	}
	log.Println("Connected to MongoDB")
	return store, nil
}

// openRedis returns nil when REDIS_ADDR is unset or unreachable; callers
// then fall back to single-instance implementations.
func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := rdx.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Redis unavailable, using local locks and events: %v", err)
		return nil
	}
	log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
	return conn
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ store: %v", err)
	}

	var (
		locker rdx.Locker           = rdx.NewLocalLocker()
		bus    mq.Bus               = mq.NewLocalBus()
		idem   pay.IdempotencyStore = pay.NewMemoryIdempotencyStore()
	)
	conn := openRedis(ctx, cfg)
	if conn != nil {
		locker = rdx.NewRedisLocker(conn)
		bus = mq.NewRedisBus(conn)
		idem = &pay.RedisIdempotencyStore{Conn: conn}
	}

	issuer := auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	guard := middleware.NewGuard(issuer, store)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx.Done())

	hub := booking.NewHub(cfg.CORSOrigins)
	go func() {
		if err := hub.Run(ctx, bus); err != nil {
			log.Printf("Hub stopped: %v", err)
		}
	}()

	app := &routes.App{
		Guard:       guard,
		RateLimiter: rateLimiter,
		Idempotency: idem,
		Parts:       parts.NewHandler(store),
		Bookings:    booking.NewHandler(store, guard, locker, bus, hub),
		Users:       users.NewHandler(store, issuer),
		Reviews:     reviews.NewHandler(store),
		Profiles:    profile.NewHandler(store),
		Payments:    pay.NewPaymentService(stripe.NewProcessor(cfg.Stripe.SecretKey), cfg.Stripe.Currency),
	}
	router := routes.NewRouter(app)

	// apply middleware: logging → security headers → CORS → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key"},
	}).Handler(router)

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Closing live booking feeds...")
		hub.Close()
	})

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("Closing store: %v", err)
	}
	if conn != nil {
		conn.Close()
	}

	log.Println("✅ Server stopped cleanly")
}
