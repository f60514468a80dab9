package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/utils"

	"admissionsdesk_backend/internals/configs"
	database "admissionsdesk_backend/internals/databases"
	"admissionsdesk_backend/internals/features/notifications/dispatcher"
	payService "admissionsdesk_backend/internals/features/payment/payments/service"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
	"admissionsdesk_backend/internals/helpers/storage"
	"admissionsdesk_backend/internals/middlewares"
	routes "admissionsdesk_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		// HTTP timeout guard, aligned with the DB statement_timeout
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		dur := time.Since(start)
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), dur)
		return err
	})

	middlewares.SetupMiddlewares(app)

	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	payService.InitRazorpay(configs.RazorpayKeyID, configs.RazorpayKeySecret)

	// side-effect dispatcher: inline for tests/small deployments, async
	// workers in production
	var disp payService.Dispatcher
	var asyncDisp *dispatcher.AsyncDispatcher
	if configs.DispatchMode() == "inline" {
		disp = dispatcher.NewInlineDispatcher(database.DB, nil)
		log.Println("✅ Dispatcher: inline")
	} else {
		asyncDisp = dispatcher.NewAsyncDispatcher(database.DB, nil, 4, 256)
		disp = asyncDisp
		log.Println("✅ Dispatcher: async (4 workers)")
	}

	ledger := &promoService.LedgerService{DB: database.DB}
	engine := payService.NewEngine(database.DB, ledger, disp)
	fs := storage.LogStorage{}

	routes.SetupRoutes(app, database.DB, engine, ledger, disp, fs)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	// drain queued side effects before releasing the pool
	if asyncDisp != nil {
		asyncDisp.Shutdown()
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
