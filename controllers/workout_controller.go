package controllers

import (
	"context"
	"net/http"
	"time"

	"mofit_api/auth"
	"mofit_api/errs"
	"mofit_api/models"
	"mofit_api/services"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// TokenVerifier checks that an Authorization header value belongs to subject.
type TokenVerifier interface {
	Authorize(ctx context.Context, header, expectedSubject string) (*auth.Claims, error)
}

var (
	listCORSHeaders = map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "GET",
	}
	createCORSHeaders = map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "POST,OPTIONS",
	}
)

// WorkoutListResponse is the body of a successful listing.
type WorkoutListResponse struct {
	Workouts []*models.Workout `json:"workouts"`
	Count    int               `json:"count"`
}

// WorkoutCreateResponse is the body of a successful create.
type WorkoutCreateResponse struct {
	Message   string          `json:"message"`
	WorkoutID string          `json:"workoutId"`
	Workout   *models.Workout `json:"workout"`
}

type WorkoutController struct {
	WorkoutService *services.WorkoutService
	Verifier       TokenVerifier
	Logger         *zap.Logger
}

func NewWorkoutController(workoutService *services.WorkoutService, verifier TokenVerifier, logger *zap.Logger) *WorkoutController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutController{WorkoutService: workoutService, Verifier: verifier, Logger: logger}
}

// ListWorkouts responds with every workout of the userId path parameter,
// newest first, optionally bounded by the startDate and endDate query
// parameters.
func (c *WorkoutController) ListWorkouts(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return serve(ctx, c.Logger, HandlerWorkoutList, req, listCORSHeaders, func() (int, any, error) {
		userID, err := pathParam(req, "userId", "userID")
		if err != nil {
			return 0, nil, err
		}

		dates, err := dateRangeParam(req)
		if err != nil {
			return 0, nil, err
		}

		workouts, err := c.WorkoutService.ListWorkouts(ctx, userID, dates)
		if err != nil {
			return 0, nil, err
		}
		if len(workouts) == 0 {
			return 0, nil, errs.NewNotFoundError("No workouts found for user")
		}

		return http.StatusOK, WorkoutListResponse{Workouts: workouts, Count: len(workouts)}, nil
	})
}

// CreateWorkout verifies the bearer token against the userId path parameter
// and stores the JSON body as a new workout.
func (c *WorkoutController) CreateWorkout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return serve(ctx, c.Logger, HandlerWorkoutCreate, req, createCORSHeaders, func() (int, any, error) {
		header := headerValue(req, "Authorization")
		if header == "" {
			return 0, nil, auth.ErrMissingToken
		}

		userID, err := pathParam(req, "userId", "userID")
		if err != nil {
			return 0, nil, err
		}

		if _, err := c.Verifier.Authorize(ctx, header, userID); err != nil {
			return 0, nil, err
		}

		fields, err := decodeBody(req)
		if err != nil {
			return 0, nil, err
		}

		workout, err := c.WorkoutService.CreateWorkout(ctx, userID, fields)
		if err != nil {
			return 0, nil, err
		}

		workoutID, _ := workout.GetString(models.WorkoutIDAttribute)
		return http.StatusOK, WorkoutCreateResponse{
			Message:   "Workout saved successfully",
			WorkoutID: workoutID,
			Workout:   workout,
		}, nil
	})
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

const dateOnlyLayout = "2006-01-02"

// dateRangeParam reads startDate/endDate. Both or neither must be given.
// A bare date as endDate covers that whole day.
func dateRangeParam(req events.APIGatewayProxyRequest) (*services.DateRange, error) {
	rawStart := req.QueryStringParameters["startDate"]
	rawEnd := req.QueryStringParameters["endDate"]
	if rawStart == "" && rawEnd == "" {
		return nil, nil
	}
	if rawStart == "" {
		return nil, errs.NewMissingParameterError("startDate")
	}
	if rawEnd == "" {
		return nil, errs.NewMissingParameterError("endDate")
	}

	start, _, err := parseDate(rawStart)
	if err != nil {
		return nil, errs.NewInvalidParameterError("startDate", err.Error())
	}
	end, dateOnly, err := parseDate(rawEnd)
	if err != nil {
		return nil, errs.NewInvalidParameterError("endDate", err.Error())
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Microsecond)
	}

	dates := &services.DateRange{Start: start, End: end}
	if err := dates.Validate(); err != nil {
		return nil, errs.NewInvalidParameterError("endDate", err.Error())
	}
	return dates, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return t, true, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), false, nil
		}
	}
	return time.Time{}, false, &time.ParseError{Value: raw, Layout: time.RFC3339, Message: ": expected an ISO 8601 date or timestamp"}
}
