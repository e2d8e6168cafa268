package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go-bizpos/internal/ai"
	"go-bizpos/internal/auth"
	"go-bizpos/internal/config"
	"go-bizpos/internal/database"
	"go-bizpos/internal/events"
	"go-bizpos/internal/handlers"
	"go-bizpos/internal/metrics"
	"go-bizpos/internal/pos"
	"go-bizpos/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	store := database.NewStore(db)

	// --- Carts ---
	var carts pos.CartStore = session.NewMemoryCarts()
	if cfg.RedisURL != "" {
		redisCarts, err := session.NewRedisCarts(ctx, cfg.RedisURL, cfg.CartTTL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer redisCarts.Close()
		carts = redisCarts
		log.Println("🛒 Carts are stored in Redis")
	} else {
		log.Println("🛒 Carts are kept in memory (set REDIS_URL to share them)")
	}

	// --- Core ---
	ledger := pos.NewLedger(store, pos.WithLocation(cfg.Location))
	committer := pos.NewCommitter(store, ledger)

	// --- Outbox relay ---
	var relayDone <-chan struct{}
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer conn.Close()
		pub, err := events.NewRabbitPublisher(conn)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer pub.Close()

		relay := events.NewRelay(store, pub, cfg.OutboxInterval, log.Default())
		relayDone = relay.Start(ctx)
		log.Printf("📨 Outbox relay publishing to %s every %s", events.EventsExchange, cfg.OutboxInterval)
	} else {
		log.Println("📨 RABBITMQ_URL not set, events stay in the outbox")
	}

	// --- HTTP ---
	deps := handlers.Deps{
		Store:     store,
		Carts:     carts,
		Ledger:    ledger,
		Committer: committer,
		Issuer:    auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		BaseURL:   cfg.BaseURL,
	}
	routerCfg := handlers.RouterConfig{
		CORSOrigins:       cfg.CORSOrigins,
		AllowRegistration: cfg.AllowRegistration,
	}
	if cfg.PrometheusEnabled {
		deps.Metrics = metrics.New(prometheus.DefaultRegisterer)
		routerCfg.MetricsHandler = promhttp.Handler()
	}
	if cfg.GeminiAPIKey != "" {
		deps.Assistant = ai.NewAgent(cfg.GeminiAPIKey, store, ledger)
	}

	r := handlers.NewRouter(handlers.New(deps), routerCfg)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("🚀 Server starting on " + cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		log.Printf("❌ Server failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	// the deferred AMQP closes must not race an in-flight publish
	if relayDone != nil {
		select {
		case <-relayDone:
		case <-shutdownCtx.Done():
			log.Println("⚠️ outbox relay did not stop in time")
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("shutdown complete")
}
