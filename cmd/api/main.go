package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/meditrack/meditrack-backend/internal/middleware"
	"github.com/meditrack/meditrack-backend/internal/modules/inventory"
	"github.com/meditrack/meditrack-backend/internal/modules/reference"
	"github.com/meditrack/meditrack-backend/internal/platform/cache"
	"github.com/meditrack/meditrack-backend/internal/platform/database"
	"github.com/meditrack/meditrack-backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.Get()

	db, err := database.Connect(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(db, "file://migrations"); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("database ready")

	redisClient, err := cache.Connect()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Actor)

	// ── Reference data ──────────────────────────────────────
	formRepo := reference.NewFormPostgresRepository(db)
	manufacturerRepo := reference.NewManufacturerPostgresRepository(db)
	referenceService := reference.NewService(formRepo, manufacturerRepo, log)
	reference.NewHandler(referenceService).RegisterRoutes(router)

	// ── Inventory ───────────────────────────────────────────
	inventoryService := inventory.NewService(
		inventory.NewTxRunner(db),
		inventory.NewCatalogPostgresRepository(db),
		inventory.NewStockPostgresRepository(db),
		inventory.NewBarcodePostgresRepository(db),
		inventory.NewHistoryPostgresRepository(db),
		referenceService,
		redisClient,
		log,
	)
	inventory.NewHandler(inventoryService).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("inventory API server starting")
	log.Fatal(http.ListenAndServe(":"+port, router))
}
