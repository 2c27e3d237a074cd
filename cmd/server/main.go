package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/leadbridge/backend/internal/application/services"
	"github.com/leadbridge/backend/internal/bootstrap"
	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/internal/infrastructure/database"
	"github.com/leadbridge/backend/internal/infrastructure/persistence"
	"github.com/leadbridge/backend/internal/infrastructure/salesforce"
	"github.com/leadbridge/backend/internal/interfaces/middleware"
	"github.com/leadbridge/backend/internal/interfaces/rest"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3002"
	}

	ledger, cleanup, err := buildLedger()
	if err != nil {
		log.Fatalf("Failed to initialize ledger store: %v", err)
	}
	defer cleanup()

	crm := buildCRMClient()

	svcMgr := services.NewServiceManager(crm, ledger, services.ConfigFromEnv())
	log.Println("🔧 Service manager initialized")

	if err := svcMgr.Sweeper.Start(); err != nil {
		log.Fatalf("Failed to start reconcile sweeper: %v", err)
	}
	log.Println("🔄 Reconcile sweeper started")

	router := buildRouter(svcMgr)

	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 LeadBridge Transfer Engine Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:          http://localhost:%s", port)
	log.Printf("📨 Transfer API:    http://localhost:%s/api/transfer", port)
	log.Printf("🔄 Reconcile API:   http://localhost:%s/api/reconcile", port)
	log.Printf("📐 Rules API:       http://localhost:%s/api/rules", port)
	log.Printf("💚 Health check:    http://localhost:%s/health\n", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.Sweeper.Stop()
	log.Println("🛑 Reconcile sweeper stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

// buildLedger selects the transfer ledger backing store. TiDB is the
// default; LEDGER_BACKEND=memory keeps everything in-process for local
// development.
func buildLedger() (ports.LedgerStore, func(), error) {
	if os.Getenv("LEDGER_BACKEND") == "memory" {
		log.Println("⚠️  Using in-memory ledger, transfer history will not survive restarts")
		return persistence.NewMemoryLedger(), func() {}, nil
	}

	conn, err := database.GetInstance()
	if err != nil {
		return nil, nil, err
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(conn); err != nil {
		return nil, nil, err
	}

	return persistence.NewLedgerRepository(conn.DB()), func() { conn.Close() }, nil
}

func buildCRMClient() *salesforce.Client {
	token := os.Getenv("SF_ACCESS_TOKEN")
	return salesforce.NewClient(salesforce.ClientOptions{
		BaseURL:    os.Getenv("SF_INSTANCE_URL"),
		APIVersion: os.Getenv("SF_API_VERSION"),
		TokenProvider: func(ctx context.Context) (string, error) {
			return token, nil
		},
	})
}

func buildRouter(svcMgr *services.ServiceManager) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "leadbridge-backend",
		})
	})

	transferHandler := rest.NewTransferHandler(svcMgr)
	reconcileHandler := rest.NewReconcileHandler(svcMgr)
	rulesHandler := rest.NewRulesHandler(svcMgr)

	api := router.Group("/api")
	api.Use(middleware.RequireTenant())
	{
		api.POST("/transfer", transferHandler.Transfer)
		api.GET("/transfer/status/:recordId", transferHandler.Status)
		api.POST("/transfer/status/batch", transferHandler.StatusBatch)
		api.DELETE("/transfer/status/:recordId", transferHandler.DeleteStatus)

		api.GET("/reconcile/:recordId", reconcileHandler.Verify)
		api.POST("/reconcile/batch", reconcileHandler.VerifyBatch)

		api.GET("/rules", rulesHandler.List)
		api.PUT("/rules", rulesHandler.Replace)
	}

	return router
}
