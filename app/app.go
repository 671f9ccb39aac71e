// Package app wires configuration, the store and the controllers together for
// both the Lambda binaries and the local server.
package app

import (
	"context"
	"fmt"

	"mofit_api/auth"
	"mofit_api/config"
	"mofit_api/controllers"
	"mofit_api/logging"
	"mofit_api/services"

	"go.uber.org/zap"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Profiles *controllers.UserProfileController
	Workouts *controllers.WorkoutController
}

// New loads the config and builds every dependency.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	client, err := services.InitializeDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
	if err != nil {
		return nil, err
	}
	logger.Info("DynamoDB client initialized",
		zap.String("region", cfg.AWSRegion),
		zap.String("endpoint", cfg.DynamoEndpoint),
	)

	verifier, err := auth.NewVerifier(cfg.JWKSURL, cfg.JWKSCacheTTL)
	if err != nil {
		return nil, err
	}

	return Build(cfg, logger, services.NewDynamoService(client, logger), verifier), nil
}

// Build assembles the controllers around an existing store and verifier.
func Build(cfg *config.Config, logger *zap.Logger, dynamo *services.DynamoService, verifier controllers.TokenVerifier) *App {
	profileService := services.NewUserProfileService(dynamo, cfg.ProfilesTable)
	workoutService := services.NewWorkoutService(dynamo, cfg.WorkoutsTable)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Profiles: controllers.NewUserProfileController(profileService, logger),
		Workouts: controllers.NewWorkoutController(workoutService, verifier, logger),
	}
}

// Handler returns the Lambda handler registered under name.
func (a *App) Handler(name string) (controllers.LambdaHandler, error) {
	switch name {
	case controllers.HandlerProfileUpdate:
		return a.Profiles.UpdateUserProfile, nil
	case controllers.HandlerProfileGet:
		return a.Profiles.GetUserProfile, nil
	case controllers.HandlerWorkoutList:
		return a.Workouts.ListWorkouts, nil
	case controllers.HandlerWorkoutCreate:
		return a.Workouts.CreateWorkout, nil
	default:
		return nil, fmt.Errorf("unknown handler %q", name)
	}
}
