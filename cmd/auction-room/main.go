package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"auction-room/internal/api/handlers"
	"auction-room/internal/auction"
	"auction-room/internal/config"
	mysqlstore "auction-room/internal/infrastructure/mysql"
	redisinfra "auction-room/internal/infrastructure/redis"
	ws "auction-room/internal/infrastructure/websocket"
	"auction-room/internal/room"
	"auction-room/internal/services"
	"auction-room/pkg/logger"
	"auction-room/pkg/utils"
)

func main() {
	log := logger.New()
	log.Info("Starting live auction room")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis carries bid/sale events and the read-side snapshot cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// MySQL is the persistence collaborator: roster in, bids and sales out.
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to open MySQL", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	store := mysqlstore.NewStore(db)

	auctionID := cfg.Auction.Season
	if auctionID == "" {
		auctionID = utils.GenerateID("auction")
	}

	// Reset-on-boot: every process start wipes prior progress and reloads
	// the roster, so the session always begins from pending.
	session, err := auction.LoadSession(ctx, auctionID, store, log)
	if err != nil {
		log.Error("Failed to load auction session", "error", err)
		os.Exit(1)
	}

	publisher := redisinfra.NewEventPublisher(rdb)
	snapshotCache := redisinfra.NewSnapshotCache(rdb)

	rm := room.New(context.Background(), session, clockwork.NewRealClock(),
		cfg.Auction.CountdownSeconds, publisher, log)

	reporter := services.NewSessionReporter(rm, snapshotCache, auctionID, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.OPTIONS},
	}))

	wsHandler := ws.NewHandler(rm, log)
	auctionHandler := handlers.NewAuctionHandler(rm, log)

	e.GET("/ws", func(c echo.Context) error {
		wsHandler.HandleConnection(c.Response(), c.Request())
		return nil
	})

	api := e.Group("/api/v1")
	api.GET("/auction/state", auctionHandler.GetState)
	api.GET("/auction/teams", auctionHandler.GetTeams)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-room",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	if err := reporter.Start(context.Background()); err != nil {
		log.Error("Failed to start session reporter", "error", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting auction room server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction room...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := reporter.Stop(); err != nil {
		log.Error("Failed to stop session reporter", "error", err)
	}
	rm.Inbox() <- room.Shutdown{}

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction room stopped")
}
