package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hirebridge/hirebridge/auth"
	config "github.com/hirebridge/hirebridge/configs"
	"github.com/hirebridge/hirebridge/database"
	"github.com/hirebridge/hirebridge/handlers"
	"github.com/hirebridge/hirebridge/jobs"
	"github.com/hirebridge/hirebridge/routes"
	"github.com/hirebridge/hirebridge/services"
	"github.com/hirebridge/hirebridge/store"
	gateway "github.com/hirebridge/hirebridge/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	log.Println("✅ Database connected and migrated")

	conversations := store.NewGormConversationStore(db)
	directory := store.NewGormIdentityDirectory(db)
	revocations := store.NewGormRevocationList(db)
	verifier := auth.NewVerifier(cfg.JWTSecret, directory, revocations)

	hub := gateway.NewHub()
	svc := services.NewConversationService(conversations, directory, gateway.NewBridge(hub))
	conversationHandler := handlers.NewConversationHandler(svc)
	wsHandler := gateway.NewHandler(hub, verifier, svc)

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.PurgeRevokedCredentials(revocations))
	go c.Start()

	app := fiber.New(fiber.Config{
		AppName:       "HireBridge Chat",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSAllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.ChatRoutes(app, cfg.JWTSecret, verifier, conversationHandler, wsHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Printf("✅ Server is running on port %d", cfg.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
