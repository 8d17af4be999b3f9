package routes

import (
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/handlers"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/config"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the
// background sweep service so main can manage its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *services.SweepService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	repaymentRepo := repositories.NewRepaymentRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	transactor := repositories.NewTransactor(db)

	// Session store: Redis primary, user table fallback
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessionStore := session.NewStore(rdb, repositories.NewSessionFallback(userRepo), sessionTTL)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionStore, cfg)
	userService := services.NewUserService(userRepo)
	accountService := services.NewAccountService(accountRepo, transactionRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	loanService := services.NewLoanService(loanRepo, accountRepo, notificationService, transactor)
	repaymentService := services.NewRepaymentService(repaymentRepo, loanRepo, accountRepo, notificationService, transactor)
	transactionService := services.NewTransactionService(transactionRepo, accountRepo, transactor)
	creditService := services.NewCreditService(accountRepo, loanRepo, transactionRepo, userRepo)
	chatbotService := services.NewChatbotService(accountService, creditService)
	settingsService := services.NewSettingsService(settingRepo)
	companyService := services.NewCompanyService(db)
	sweepService := services.NewSweepService(userRepo, loanRepo, accountRepo, notificationService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(rdb)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	loanHandler := handlers.NewLoanHandler(loanService, creditService, accountService)
	repaymentHandler := handlers.NewRepaymentHandler(repaymentService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	creditHandler := handlers.NewCreditHandler(creditService)
	chatbotHandler := handlers.NewChatbotHandler(chatbotService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", middleware.CacheControl(time.Hour), swagger.HandlerDefault)

	// Shared guards
	requireAuth := middleware.RequireAuth(authService, cfg)
	adminOnly := middleware.AdminOnly()

	apiV1 := app.Group("/api/v1", middleware.NoStore())

	// User auth routes
	userRoutes := apiV1.Group("/users")
	userRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	userRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	userRoutes.Delete("/logout", authHandler.Logout)
	userRoutes.Post("/forgot-password", middleware.StrictRateLimiter(), authHandler.ForgotPassword)
	userRoutes.Post("/reset-password", middleware.StrictRateLimiter(), authHandler.ResetPassword)
	userRoutes.Get("/verify-session", requireAuth, authHandler.VerifySession)
	userRoutes.Get("/me", requireAuth, authHandler.Me)
	userRoutes.Get("/profile", requireAuth, userHandler.GetProfile)
	userRoutes.Put("/profile", requireAuth, userHandler.UpdateProfile)
	userRoutes.Put("/change-password", requireAuth, userHandler.ChangePassword)

	// Account routes
	accountRoutes := apiV1.Group("/accounts", requireAuth)
	accountRoutes.Post("/", accountHandler.Create)
	accountRoutes.Get("/", accountHandler.ListMine)
	accountRoutes.Get("/:id", accountHandler.Get)
	accountRoutes.Post("/:id/deposit", accountHandler.Deposit)
	accountRoutes.Post("/:id/withdraw", accountHandler.Withdraw)
	accountRoutes.Get("/:id/transactions", accountHandler.Transactions)

	// Loan routes
	loanRoutes := apiV1.Group("/loans", requireAuth)
	loanRoutes.Post("/", loanHandler.Apply)
	loanRoutes.Get("/", adminOnly, loanHandler.List)
	loanRoutes.Get("/my", loanHandler.ListMine)
	loanRoutes.Get("/repayable", loanHandler.ListRepayable)
	loanRoutes.Get("/:id", loanHandler.Get)
	loanRoutes.Put("/:id", loanHandler.Update)
	loanRoutes.Delete("/:id", loanHandler.Delete)
	loanRoutes.Put("/:id/approve", adminOnly, loanHandler.Approve)
	loanRoutes.Put("/:id/reject", adminOnly, loanHandler.Reject)
	loanRoutes.Get("/:id/risk", adminOnly, loanHandler.Risk)
	loanRoutes.Get("/:id/repayments", repaymentHandler.ListByLoan)
	loanRoutes.Get("/:id/repayment-schedule", loanHandler.Schedule)
	loanRoutes.Get("/:id/summary", repaymentHandler.Summary)

	// Repayment routes
	repaymentRoutes := apiV1.Group("/repayments", requireAuth)
	repaymentRoutes.Post("/make-payment", repaymentHandler.MakePayment)
	repaymentRoutes.Get("/", adminOnly, repaymentHandler.List)
	repaymentRoutes.Get("/:id", repaymentHandler.Get)

	// Transaction routes
	transactionRoutes := apiV1.Group("/transactions", requireAuth)
	transactionRoutes.Post("/transfer", transactionHandler.Transfer)
	transactionRoutes.Get("/", adminOnly, transactionHandler.List)
	transactionRoutes.Get("/:id", transactionHandler.Get)

	// Credit score & calculator
	apiV1.Get("/credit-score", requireAuth, creditHandler.MyScore)
	apiV1.Post("/calculate", creditHandler.Calculate)

	// Chatbot (auth optional: anonymous gets generic answers)
	apiV1.Post("/chatbot/message", middleware.OptionalAuth(authService, cfg), chatbotHandler.Message)

	// Notification routes
	notificationRoutes := apiV1.Group("/notifications", requireAuth)
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Put("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Put("/:id/read", notificationHandler.MarkRead)

	// Admin routes
	adminRoutes := apiV1.Group("/admin", requireAuth, adminOnly)
	adminRoutes.Get("/users", userHandler.ListUsers)
	adminRoutes.Get("/users/:id", userHandler.GetUser)
	adminRoutes.Put("/users/:id", userHandler.UpdateUser)
	adminRoutes.Delete("/users/:id", userHandler.DeleteUser)
	adminRoutes.Get("/accounts", accountHandler.ListAll)
	adminRoutes.Put("/accounts/:id/status", accountHandler.UpdateStatus)
	adminRoutes.Get("/settings", settingsHandler.Get)
	adminRoutes.Put("/settings", settingsHandler.Update)
	adminRoutes.Get("/credit-score", creditHandler.Overview)
	adminRoutes.Get("/credit-score/:id", creditHandler.UserScore)
	adminRoutes.Get("/company-balance/overview", companyHandler.Overview)
	adminRoutes.Get("/company-balance/loan-analytics", companyHandler.Analytics)
	adminRoutes.Get("/company-balance/summary", companyHandler.Summary)
	adminRoutes.Get("/reports/transactions", transactionHandler.Report)

	return sweepService
}
