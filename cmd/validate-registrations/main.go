package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"driver-registration-api/config"
	"driver-registration-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ReloadMailerConfig()
	config.InitDB()

	var allPending bool
	flag.BoolVar(&allPending, "all", false, "sweep every pending registration instead of preferring the recent window")
	flag.Parse()

	job := services.NewValidationJobService(nil, nil)
	summary, err := job.RunOnce(context.Background(), &services.ValidationRunInput{
		AllPending: allPending,
	})
	if err != nil {
		log.Fatalf("validation pass failed: %v", err)
	}

	fmt.Printf("Registrations selected: %d\n", summary.Selected)
	fmt.Printf("Validated: %d, failed: %d, skipped: %d\n",
		summary.Validated,
		summary.Failed,
		summary.Skipped,
	)

	if summary.Skipped > 0 {
		os.Exit(2)
	}
}
