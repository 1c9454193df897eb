package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/middlewares"
	"github.com/keeper-books/keeper_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("keeper-backend")

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	registerReferenceDataRoutes(api)

	accounts := api.Group("/transaction-accounts")
	accounts.POST("", createTransactionAccountHandler)
	accounts.GET("", listTransactionAccountsHandler)
	accounts.GET("/:id", getTransactionAccountHandler)
	accounts.PUT("/:id", updateTransactionAccountHandler)
	accounts.DELETE("/:id", deleteTransactionAccountHandler)
	accounts.POST("/:id/reparent", reparentTransactionAccountHandler)
	accounts.GET("/:id/children", listChildAccountsHandler)
	accounts.GET("/:id/balance", getAccountBalanceHandler)

	transactions := api.Group("/account-transactions")
	transactions.POST("", createAccountTransactionHandler)
	transactions.GET("", listAccountTransactionsHandler)
	transactions.GET("/:id", getAccountTransactionHandler)
	transactions.PUT("/:id", updateAccountTransactionHandler)
	transactions.DELETE("/:id", deleteAccountTransactionHandler)
	transactions.POST("/:id/propose", proposeAccountTransactionHandler())
	transactions.POST("/:id/post", postAccountTransactionHandler())
	transactions.POST("/:id/approve", approveAccountTransactionHandler())
	transactions.POST("/:id/entries", addTransactionEntryHandler)
	transactions.GET("/:id/entries", listTransactionEntriesHandler)

	entries := api.Group("/transaction-entries")
	entries.PUT("/:id", updateTransactionEntryHandler)
	entries.DELETE("/:id", removeTransactionEntryHandler)

	itemTypes := api.Group("/balance-sheet-item-types")
	itemTypes.POST("", createBalanceSheetItemTypeHandler)
	itemTypes.GET("", listBalanceSheetItemTypesHandler)
	itemTypes.GET("/:id", getBalanceSheetItemTypeHandler)
	itemTypes.PUT("/:id", updateBalanceSheetItemTypeHandler)
	itemTypes.DELETE("/:id", deleteBalanceSheetItemTypeHandler)
	itemTypes.POST("/:id/reparent", reparentBalanceSheetItemTypeHandler)
	itemTypes.GET("/:id/children", listChildItemTypesHandler)
	itemTypes.GET("/:id/values", listBalanceSheetItemValuesHandler)
	itemTypes.GET("/:id/values/latest", latestBalanceSheetItemValueHandler)
	itemTypes.GET("/:id/value", computeItemValueHandler)

	itemValues := api.Group("/balance-sheet-item-values")
	itemValues.POST("", createBalanceSheetItemValueHandler)
	itemValues.PUT("/:id", updateBalanceSheetItemValueHandler)
	itemValues.DELETE("/:id", deleteBalanceSheetItemValueHandler)

	api.GET("/balance-sheet/report", balanceSheetReportHandler)
	api.GET("/balance-sheet/report.xlsx", balanceSheetReportXLSXHandler)

	events := api.Group("/accounting-events")
	events.POST("", recordAccountingEventHandler)
	events.GET("", listAccountingEventsHandler)
	events.GET("/:id", getAccountingEventHandler)
	events.DELETE("/:id", deleteAccountingEventHandler)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until the DB is ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.RequestContextMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist; elsewhere allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.RequestLogger())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Error("could not access underlying sql handle: " + err.Error())
	}
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateModels(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
		if err := models.SeedDefaultData(context.Background()); err != nil {
			logger.WithFields(logrus.Fields{"field": "seed"}).Error(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("shutdown error: " + err.Error())
	}
}
