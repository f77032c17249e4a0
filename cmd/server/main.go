package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	eventHandler := handlers.NewEventHandler(service)
	markHandler := handlers.NewMarkHandler(service)
	adminHandler := handlers.NewAdminHandler(service)

	http.HandleFunc("POST /api/v1/admin/login", adminHandler.HandleLogin)
	http.HandleFunc("POST /api/v1/admin/logout", adminHandler.HandleLogout)

	http.HandleFunc("GET /api/v1/events", eventHandler.HandleListEvents)
	http.HandleFunc("GET /api/v1/events/{id}", eventHandler.HandleEventSheet)
	http.HandleFunc("GET /api/v1/events/{id}/judges", eventHandler.HandleListJudges)
	http.HandleFunc("GET /api/v1/events/{id}/categories/{category}/sheet", eventHandler.HandleCategorySheet)

	http.HandleFunc("POST /api/v1/events/{id}/marks", markHandler.HandleSaveMarks)
	http.HandleFunc("POST /api/v1/events/{id}/lock", adminHandler.HandleLock)
	http.HandleFunc("GET /api/v1/events/{id}/results", markHandler.HandleResults)
	http.HandleFunc("GET /api/v1/results", markHandler.HandleOverview)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting lussekatt server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Lussekatt server failed: %v", err)
	}
}
