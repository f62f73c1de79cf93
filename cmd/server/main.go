package main // Entry point package

import (
	"context"   // shutdown deadline
	"log"       // Logging library
	"os"        // signal channel
	"os/signal" // SIGINT/SIGTERM handling
	"syscall"   // signal constants
	"time"      // shutdown timeout

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/auto-service/internal/config"     // environment config loader
	"github.com/iliyamo/auto-service/internal/database"   // MySQL pool and schema bootstrap
	"github.com/iliyamo/auto-service/internal/handler"    // HTTP handlers
	"github.com/iliyamo/auto-service/internal/queue"      // shift event consumer
	"github.com/iliyamo/auto-service/internal/repository" // data access layer
	"github.com/iliyamo/auto-service/internal/router"     // route registration
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.InitSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	shiftRepo := repository.NewShiftRepo(db)
	txnRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	serviceRepo := repository.NewServiceRepo(db)
	recordRepo := repository.NewRecordRepo(db)

	h := router.Handlers{
		Shift:       handler.NewShiftHandler(shiftRepo, userRepo, txnRepo),
		Transaction: handler.NewTransactionHandler(txnRepo, shiftRepo),
		User:        handler.NewUserHandler(userRepo, shiftRepo, serviceRepo),
		Service:     handler.NewServiceHandler(serviceRepo),
		Record:      handler.NewRecordHandler(recordRepo),
	}

	// Redis is optional: with no client the cache and limiter become
	// pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, h, rdb, config.LoadCacheConfig(), config.LoadRateLimitConfig())

	// The consumer reconnects on its own; a missing broker only costs
	// the event log, never the API.
	go func() {
		if err := queue.StartShiftEventConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
