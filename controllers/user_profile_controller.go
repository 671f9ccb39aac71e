package controllers

import (
	"context"
	"errors"
	"net/http"

	"mofit_api/errs"
	"mofit_api/services"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	UserProfileService *services.UserProfileService
	Logger             *zap.Logger
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(userProfileService *services.UserProfileService, logger *zap.Logger) *UserProfileController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserProfileController{UserProfileService: userProfileService, Logger: logger}
}

// UpdateUserProfile merges the JSON body into the profile named by the userId
// path parameter and responds with the whole updated profile.
func (c *UserProfileController) UpdateUserProfile(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return serve(ctx, c.Logger, HandlerProfileUpdate, req, nil, func() (int, any, error) {
		userID, err := pathParam(req, "userId", "userID")
		if err != nil {
			return 0, nil, err
		}

		updates, err := decodeBody(req)
		if err != nil {
			return 0, nil, err
		}

		profile, err := c.UserProfileService.UpdateUserProfile(ctx, userID, updates)
		if errors.Is(err, services.ErrNoUpdatableFields) {
			return 0, nil, errs.NewInvalidBodyError("Request body has no updatable fields").WithCause(err)
		}
		if err != nil {
			return 0, nil, err
		}

		return http.StatusOK, profile, nil
	})
}

// GetUserProfile responds with the profile named by the userID path parameter.
func (c *UserProfileController) GetUserProfile(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return serve(ctx, c.Logger, HandlerProfileGet, req, nil, func() (int, any, error) {
		userID, err := pathParam(req, "userID", "userId")
		if err != nil {
			return 0, nil, err
		}

		profile, err := c.UserProfileService.GetUserProfile(ctx, userID)
		if errors.Is(err, services.ErrItemNotFound) {
			return 0, nil, errs.NewNotFoundError("User not found")
		}
		if err != nil {
			return 0, nil, err
		}

		return http.StatusOK, profile, nil
	})
}
