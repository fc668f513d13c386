package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/config"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/controller"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/greetings"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/repository"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/scheduler"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/service"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/stripe"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("Starting AfriKoin payment/notification service...")

	loc, err := time.LoadLocation(cfg.Dispatch.Timezone)
	if err != nil {
		logrus.Fatalf("Invalid dispatch timezone %q: %v", cfg.Dispatch.Timezone, err)
	}
	util.SetLocation(loc)

	if cfg.Stripe.SecretKey == "" {
		logrus.Warn("WARNING: Stripe secret key is empty")
	} else {
		logrus.Infof("Stripe secret key: %s (length: %d)",
			maskString(cfg.Stripe.SecretKey), len(cfg.Stripe.SecretKey))
	}

	db, err := setupDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	stripeClient := stripe.NewClient(stripe.Config{
		SecretKey: cfg.Stripe.SecretKey,
	})
	greetingsClient := greetings.NewClient(greetings.Config{
		BaseURL: cfg.Greetings.BaseURL,
		APIKey:  cfg.Greetings.APIKey,
		Timeout: cfg.Greetings.Timeout,
	})

	paymentService := service.NewPaymentService(
		purchaseRepo,
		stripeClient,
		service.DefaultPackCatalog(),
	)
	notificationService := service.NewNotificationService(
		notificationRepo,
		greetingsClient,
	)

	paymentController := controller.NewPaymentController(paymentService, userRepo)
	notificationController := controller.NewNotificationController(
		notificationService,
		cfg.Dispatch.CronToken,
	)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	paymentController.RegisterRoutes(e)
	notificationController.RegisterRoutes(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	if cfg.Dispatch.Enabled {
		logrus.Infof("Starting dispatch scheduler (interval %s, timezone %s)",
			cfg.Dispatch.Interval, cfg.Dispatch.Timezone)
		go scheduler.Start(notificationService, cfg.Dispatch.Interval)
	}

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			logrus.Infof("Server shutdown: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func setupDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", cfg.DB.GetDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func maskString(s string) string {
	if len(s) <= 2 {
		return "**"
	}
	return s[:2] + "..." + s[len(s)-2:]
}
