package main

import (
	"context"
	"log"
	"net/http"

	"gopower/internal/config"
	"gopower/internal/container"
	"gopower/ui"

	"github.com/joho/godotenv"
)

// Serves only the report pages, mounted at the root. Useful next to a
// read replica when the JSON API runs elsewhere.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	app, err := ui.NewReportApp(ui.Config{AccessLog: true}, appContainer.PlanService, appContainer.SweepService, appContainer.Logger)
	if err != nil {
		log.Fatal("Failed to create report app:", err)
	}

	addr := ":" + appConfig.Server.Port
	log.Printf("Starting gopower reports on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, app))
}
