package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "stocktake/internal/adapters/web"
	"stocktake/internal/app"
	"stocktake/internal/core"
	"stocktake/internal/db"
	"stocktake/internal/export"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, connStr)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	userService := core.NewUserService(pool)
	warehouseService := core.NewWarehouseService(pool)
	groupService := core.NewGroupService(pool)
	productService := core.NewProductService(pool)
	aisleService := core.NewAisleService(pool)
	locationService := core.NewLocationService(pool)
	stocktakingService := core.NewStocktakingService(pool)
	reconciliationService := core.NewReconciliationService(pool, stocktakingService)

	svc := app.NewAppService(
		userService,
		warehouseService,
		groupService,
		productService,
		aisleService,
		locationService,
		stocktakingService,
		reconciliationService,
		export.NewCSV(),
	)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
