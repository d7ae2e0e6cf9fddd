// Command server runs the weather lookup web widget and JSON API.
package main

import (
	"context"
	"log"

	"github.com/sean-rowe/weather-lookup/internal/app"
)

func main() {
	application, err := app.New()

	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}

	if err := application.Start(context.Background()); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	application.WaitForShutdown()
	application.Stop()
}
