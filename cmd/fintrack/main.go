package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	database "github.com/fintrackapp/fintrack/db"
	"github.com/fintrackapp/fintrack/internal/auth"
	"github.com/fintrackapp/fintrack/internal/budget"
	"github.com/fintrackapp/fintrack/internal/ledger/application"
	"github.com/fintrackapp/fintrack/internal/ledger/infrastructure"
	"github.com/fintrackapp/fintrack/internal/ledger/interfaces"
	"github.com/fintrackapp/fintrack/internal/savings"
	"github.com/fintrackapp/fintrack/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router             *http.ServeMux
	dbService          *database.DBService
	authHandler        *auth.Handler
	authService        auth.Service
	userHandler        *user.Handler
	transactionHandler *interfaces.TransactionHandler
	budgetHandler      *budget.Handler
	savingsHandler     *savings.Handler
}

func NewServer(
	dbService *database.DBService,
	authHandler *auth.Handler,
	authService auth.Service,
	userHandler *user.Handler,
	transactionHandler *interfaces.TransactionHandler,
	budgetHandler *budget.Handler,
	savingsHandler *savings.Handler,
) *Server {
	return &Server{
		router:             http.NewServeMux(),
		dbService:          dbService,
		authHandler:        authHandler,
		authService:        authService,
		userHandler:        userHandler,
		transactionHandler: transactionHandler,
		budgetHandler:      budgetHandler,
		savingsHandler:     savingsHandler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"db":     s.dbService.Health(),
	})
}

func (s *Server) RegisterRoutes() {
	protected := s.authService.JWTAccessTokenMiddleware()

	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.authHandler.HandleRegister))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("POST /api/auth/logout", http.HandlerFunc(s.authHandler.HandleLogout))
	publicRoutes.Handle("POST /api/auth/2fa/verify", http.HandlerFunc(s.authHandler.HandleVerifyTwoFactor))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()
	protectedRoutes.Handle("GET /api/protected/profile", protected(http.HandlerFunc(s.userHandler.HandleGetUserProfile)))
	protectedRoutes.Handle("POST /api/protected/change-password", protected(http.HandlerFunc(s.userHandler.HandleChangePassword)))

	protectedRoutes.Handle("POST /api/protected/2fa/register", protected(http.HandlerFunc(s.authHandler.HandleRegisterTwoFactor)))
	protectedRoutes.Handle("POST /api/protected/2fa/verify-registration", protected(http.HandlerFunc(s.authHandler.HandleConfirmTwoFactor)))
	protectedRoutes.Handle("DELETE /api/protected/2fa/disable", protected(http.HandlerFunc(s.authHandler.HandleDisableTwoFactor)))

	// TRANSACTIONS API
	protectedRoutes.Handle("GET /api/protected/transactions", protected(http.HandlerFunc(s.transactionHandler.GetTransactions)))
	protectedRoutes.Handle("POST /api/protected/transactions", protected(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("PATCH /api/protected/transactions/{transactionID}", protected(http.HandlerFunc(s.transactionHandler.UpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/transactions/{transactionID}", protected(http.HandlerFunc(s.transactionHandler.DeleteTransaction)))

	// BUDGETS API
	protectedRoutes.Handle("GET /api/protected/budgets", protected(http.HandlerFunc(s.budgetHandler.HandleListBudgets)))
	protectedRoutes.Handle("POST /api/protected/budgets", protected(http.HandlerFunc(s.budgetHandler.HandleCreateBudget)))
	protectedRoutes.Handle("PATCH /api/protected/budgets/{budgetID}", protected(http.HandlerFunc(s.budgetHandler.HandleUpdateBudget)))
	protectedRoutes.Handle("DELETE /api/protected/budgets/{budgetID}", protected(http.HandlerFunc(s.budgetHandler.HandleDeleteBudget)))

	// SAVINGS GOALS API
	protectedRoutes.Handle("GET /api/protected/savings-goals", protected(http.HandlerFunc(s.savingsHandler.HandleListGoals)))
	protectedRoutes.Handle("POST /api/protected/savings-goals", protected(http.HandlerFunc(s.savingsHandler.HandleCreateGoal)))
	protectedRoutes.Handle("POST /api/protected/savings-goals/{goalID}/contribute", protected(http.HandlerFunc(s.savingsHandler.HandleContribute)))
	protectedRoutes.Handle("DELETE /api/protected/savings-goals/{goalID}", protected(http.HandlerFunc(s.savingsHandler.HandleDeleteGoal)))

	// Refresh token routes
	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.Handle("PUT /api/refresh/token", s.authService.JWTRefreshTokenMiddleware()(http.HandlerFunc(s.authHandler.RefreshAccessToken)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/refresh/", refreshTokenRoutes)

	if staticDir := os.Getenv("STATIC_DIR"); staticDir != "" {
		mainRouter.Handle("/", http.FileServer(http.Dir(staticDir)))
	} else {
		mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))
	}

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	authRepo := auth.NewUserRepository(dbService.DB)
	userRepo := user.NewUserRepository(dbService.DB)

	sessionManager := auth.NewSessionManager()
	sessionManager.StartSessionTokenCleanup(time.Minute)
	jwtManager := auth.NewJWTManager()
	authenticator := &auth.Authenticator{}

	userService := user.NewUserService(userRepo)
	userHandler := user.NewHandler(userService)
	authService := auth.NewAuthService(authRepo, userService, sessionManager, jwtManager, authenticator)
	authHandler := auth.NewHandler(authService)

	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	reconciler := application.NewReconciler(transactionRepo)
	transactionHandler := interfaces.NewTransactionHandler(reconciler, respondJSON, respondError)

	budgetRepo := budget.NewBudgetRepository(dbService.DB)
	budgetService := budget.NewBudgetService(budgetRepo)
	budgetHandler := budget.NewHandler(budgetService)

	savingsRepo := savings.NewSavingsRepository(dbService.DB)
	savingsService := savings.NewSavingsService(savingsRepo)
	savingsHandler := savings.NewHandler(savingsService)

	server := NewServer(dbService, authHandler, authService, userHandler, transactionHandler, budgetHandler, savingsHandler)
	server.RegisterRoutes()

	auditor := application.NewBalanceAuditor(transactionRepo)
	if err := StartBalanceAuditScheduler(auditor); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	handler := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Printf("Server starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func StartBalanceAuditScheduler(auditor *application.BalanceAuditor) error {
	c := cron.New()
	_, err := c.AddFunc("@daily", func() {
		drifts, err := auditor.Audit()
		if err != nil {
			log.Printf("Error auditing balances: %v", err)
			return
		}
		if len(drifts) == 0 {
			log.Println("Balance audit completed, no drift detected.")
			return
		}
		for _, drift := range drifts {
			log.Printf("Balance drift detected: %s", drift)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
