package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/routes"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/config"

	"github.com/gofiber/fiber/v2"

	_ "github.com/mckienzie7/MicroFinance-Solution-sub000/docs" // Swagger docs
)

// @title MicroFinance Solution API
// @version 1.0
// @description Microfinance platform API: savings accounts, loans, repayments and credit scoring.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@microfinance-solution.com

// @license.name MIT

// @host localhost:5000
// @BasePath /api/v1

// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
// @description Session token, sent as the session cookie or "Bearer <token>".

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Connect to Redis (session store primary channel)
	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Seed the initial admin account
	if err := config.SeedAdminUser(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed admin user: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MicroFinance Solution API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (dependency injection root)
	sweepService := routes.Setup(app, db, rdb, cfg)

	// Background maintenance jobs
	sweepService.Start()
	defer sweepService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
