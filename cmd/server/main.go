package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/discount-platform/redemption-service/internal/clock"
	"github.com/discount-platform/redemption-service/internal/codec"
	"github.com/discount-platform/redemption-service/internal/config"
	"github.com/discount-platform/redemption-service/internal/database"
	"github.com/discount-platform/redemption-service/internal/handler"
	"github.com/discount-platform/redemption-service/internal/ledger"
	"github.com/discount-platform/redemption-service/internal/queue"
	"github.com/discount-platform/redemption-service/internal/repository"
	"github.com/discount-platform/redemption-service/internal/router"
	"github.com/discount-platform/redemption-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load a local .env when present; real deployments set the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatalf("migrate: %v", err)
	}
	cancelMigrate()

	cdc, err := codec.New([]byte(cfg.TicketHashSecret))
	if err != nil {
		log.Fatalf("codec: %v", err)
	}

	clk := clock.NewSystem()
	repo := repository.NewTicketRepo(db)
	ledgerClient := ledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerToken, cfg.LedgerTimeout, clk)

	issuer := service.NewIssuer(repo, ledgerClient, cdc, clk, cfg.TicketTTL)
	gate := service.NewGate(repo, cdc, clk, service.PublishTicketConsumed)
	sweeper := service.NewSweeper(repo, clk, cfg.SweepInterval)

	// Background workers stop when the signal context is cancelled.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)
	go func() {
		if err := queue.StartReconciliationConsumer(ctx, ledgerClient); err != nil && ctx.Err() == nil {
			log.Printf("reconciler stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterTickets(e, handler.NewTicketHandler(issuer, gate), cfg.JWTSecret, config.NewRedisClient(), cfg.RequestTimeout)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Printf("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
		os.Exit(1)
	}
}
