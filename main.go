package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/queue"
	"github.com/Inventra/Inventra-Backend/src/routes"
	"github.com/Inventra/Inventra-Backend/src/seed"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

func main() {

	// Control database connection
	controlDB, err := db.Connect()
	if err != nil {
		log.Fatalf("Error connecting to database: %v\n", err)
	}

	// Auto-migrate control-plane models
	if err := controlDB.AutoMigrate(&models.UserModel{}, &models.TenantModel{}); err != nil {
		log.Fatalf("Error during auto-migration: %v\n", err)
	}

	middleware.SetSecretKey(os.Getenv("JWT_SECRET"))

	seed.Seed(controlDB)

	// Object storage
	storage, err := utils.NewGCSStorage(context.Background())
	if err != nil {
		log.Fatalf("Error connecting to object storage: %v\n", err)
	}

	// Tenant databases
	tenants := db.NewTenantManager()

	// Task execution
	workers := 2
	if raw := os.Getenv("TASK_WORKERS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			workers = parsed
		}
	}
	runner := services.NewTaskRunner(tenants, storage)
	dispatcher := queue.NewDispatcher(workers, 64, runner.Handle)
	defer dispatcher.Close()

	// Port and host setup
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = ":8080"
	}

	// Gin router setup
	router := gin.Default()
	router.Use(middleware.SetupCORS())

	// Services setup
	userService := services.NewUserService(controlDB)
	tenantService := services.NewTenantService(controlDB, tenants)
	taskService := services.NewTaskService(tenants, storage, dispatcher)
	tenantMw := middleware.TenantMiddleware(tenants, tenantService.IsActive)

	// Routes setup
	routes.SetupUserRoutes(router, userService)
	routes.SetupTenantRoutes(router, tenantService)
	routes.SetupNodeRoutes(router, tenantMw, storage)
	routes.SetupImportRoutes(router, tenantMw)
	routes.SetupReportRoutes(router, tenantMw, storage)
	routes.SetupTaskRoutes(router, tenantMw, taskService, storage)
	routes.SetupSessionRoutes(router, tenantMw)

	router.GET("/", func(c *gin.Context) {
		c.String(200, "Inventra backend is up")
	})

	// Server run
	if err := router.Run(host); err != nil {
		log.Fatalf("Error starting server on %s: %v\n", host, err)
	}
}
