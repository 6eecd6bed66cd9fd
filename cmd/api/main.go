package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kevinseya/app-ticketera-backend/internal/api"
	"github.com/kevinseya/app-ticketera-backend/internal/api/handler"
	custommiddleware "github.com/kevinseya/app-ticketera-backend/internal/api/middleware"
	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/config"
	"github.com/kevinseya/app-ticketera-backend/internal/infrastructure/postgres"
	redisinfra "github.com/kevinseya/app-ticketera-backend/internal/infrastructure/redis"
	"github.com/kevinseya/app-ticketera-backend/internal/infrastructure/stripe"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/logger"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/metrics"
	"github.com/kevinseya/app-ticketera-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis接続（任意。落ちていてもキャッシュなしで起動する）
	var seatCache redisinfra.SeatCacheInterface
	redisClient := redisinfra.NewClient(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		logger.Warn("Redis接続に失敗しました。キャッシュなしで起動します", zap.Error(err))
	} else {
		seatCache = redisinfra.NewSeatCache(redisClient)
	}
	cancel()
	defer redisClient.Close()

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	// 決済ゲートウェイ
	gateway := stripe.NewClient(&cfg.Stripe)

	// アプリケーションサービス
	eventService := application.NewEventService(txManager, eventRepo, seatRepo)
	seatService := application.NewSeatService(seatRepo, seatCache)
	ticketService := application.NewTicketService(
		txManager, ticketRepo, seatRepo, eventRepo, gateway, seatCache, cfg.Stripe.Currency)

	// ハンドラー
	eventHandler := handler.NewEventHandler(eventService)
	seatHandler := handler.NewSeatHandler(seatService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	healthHandler := handler.NewHealthHandler()

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")

	events := v1.Group("/events")
	events.GET("", eventHandler.List)
	events.GET("/:id", eventHandler.GetByID)
	events.GET("/:id/seats", seatHandler.GetByEvent)
	events.GET("/:id/seats/available", seatHandler.GetAvailableByEvent)
	events.GET("/:id/seats/count", seatHandler.CountAvailable)
	events.POST("", eventHandler.Create, custommiddleware.AdminOnly())
	events.PUT("/:id", eventHandler.Update, custommiddleware.AdminOnly())
	events.DELETE("/:id", eventHandler.Delete, custommiddleware.AdminOnly())

	tickets := v1.Group("/tickets")
	tickets.POST("/payment-intent", ticketHandler.CreatePaymentIntent)
	tickets.POST("/confirm", ticketHandler.ConfirmPayment)
	tickets.POST("/verify", ticketHandler.Verify, custommiddleware.AdminOnly())
	tickets.GET("/my", ticketHandler.GetMyTickets)
	tickets.GET("/:id", ticketHandler.GetByID)
	tickets.GET("", ticketHandler.List, custommiddleware.AdminOnly())

	// 空席数キャッシュのリフレッシャー（Redisがある場合のみ）
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var refresher *worker.SeatCountRefresher
	if seatCache != nil {
		refresher = worker.NewSeatCountRefresher(
			eventRepo, seatRepo, seatCache,
			cfg.Worker.SeatCountRefreshInterval, cfg.Worker.SeatCountCacheTTL)
		go refresher.Start(workerCtx)
	}

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています")

	if refresher != nil {
		refresher.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
