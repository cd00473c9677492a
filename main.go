package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/config"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/router"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()
	if err := utils.ConfigureLogger(cfg.AppEnv == "production", cfg.LogLevel); err != nil {
		utils.ErrorLogger.Printf("Ignoring LOG_LEVEL: %v", err)
	}

	// Set gin mode
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	deps, err := buildApp(cfg, db)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to prepare service: %v", err)
	}
	deps.Registry.Start()
	defer deps.Registry.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.SetupRouter(deps),
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Shutdown error: %v", err)
	}
	utils.InfoLogger.Println("Server stopped")
}

// buildApp migrates the database and assembles stores, workflows and the hub.
func buildApp(cfg config.Config, db *gorm.DB) (router.Deps, error) {
	utils.ConfigureJWT(cfg.JWTSecret, cfg.TokenTTL)

	if err := database.Migrate(db); err != nil {
		return router.Deps{}, err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if cfg.SeedFloorPlan {
		n, err := database.SeedFloorPlan(db, workflow.DefaultFloorPlan())
		if err != nil {
			return router.Deps{}, err
		}
		if n > 0 {
			utils.InfoLogger.Printf("Seeded %d tables", n)
		}
	}

	tables := services.NewTableStore(db)
	bookings := services.NewBookingStore(db)
	floorHub := hub.New(utils.InfoLogger)

	var sink workflow.BookingSink = bookings
	if cfg.AMQPURL != "" {
		publishing := services.NewPublishingSink(bookings, services.NewAMQPPublisher(cfg.AMQPURL))
		publishing.Logger = utils.ErrorLogger
		sink = publishing
	}

	var gate services.Gate = services.NewStaffGate(db)
	if cfg.IdentityMode == "demo" {
		utils.ErrorLogger.Warn("IDENTITY_MODE=demo: any non-empty credentials are accepted")
		gate = services.DemoGate{}
	}

	resOpts := []workflow.ReservationOption{
		workflow.WithReservationTimeout(cfg.WorkflowTimeout),
		workflow.WithReservationLogger(utils.InfoLogger),
	}
	if cfg.RecheckAvailability {
		resOpts = append(resOpts, workflow.WithAvailabilityRecheck())
	}
	statusOpts := []workflow.StatusOption{
		workflow.WithStatusTimeout(cfg.WorkflowTimeout),
		workflow.WithListener(floorHub),
		workflow.WithStatusLogger(utils.InfoLogger),
	}
	if cfg.StrictStatusDetails {
		statusOpts = append(statusOpts, workflow.WithStrictDetails())
	}

	registry := services.NewSessionRegistry(
		func() *workflow.ReservationWorkflow {
			return workflow.NewReservationWorkflow(tables, sink, resOpts...)
		},
		func(sessionID string) *workflow.TableStatusWorkflow {
			return workflow.NewTableStatusWorkflow(tables, gate.ForSession(sessionID), bookings, statusOpts...)
		},
		cfg.SessionIdleTTL,
	)
	registry.Logger = utils.InfoLogger

	return router.Deps{
		DB:         db,
		Tables:     tables,
		Bookings:   bookings,
		Registry:   registry,
		Hub:        floorHub,
		CORSOrigin: cfg.CORSOrigin,
		Production: cfg.AppEnv == "production",
		BcryptCost: cfg.BcryptCost,
	}, nil
}
