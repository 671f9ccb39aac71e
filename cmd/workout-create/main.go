package main

import (
	"context"
	"log"

	"mofit_api/app"
	"mofit_api/controllers"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Logger.Sync()

	handler, err := a.Handler(controllers.HandlerWorkoutCreate)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	lambda.Start(handler)
}
