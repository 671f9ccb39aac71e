package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mofit_api/models"
	"mofit_api/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DateRange bounds a workout listing by the stored timestamp, inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate reports whether the range is usable.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("both start and end are required")
	}
	if r.End.Before(r.Start) {
		return errors.New("end is before start")
	}
	return nil
}

type WorkoutService struct {
	Dynamo *DynamoService
	Table  string

	// Now is the clock used for workout ids and timestamps.
	Now func() time.Time
}

// NewWorkoutService binds the service to tableName.
func NewWorkoutService(dynamo *DynamoService, tableName string) *WorkoutService {
	if tableName == "" {
		tableName = models.WorkoutsTable
	}
	return &WorkoutService{Dynamo: dynamo, Table: tableName, Now: time.Now}
}

// ListWorkouts returns every workout of userID, newest first. When dates is
// non-nil only workouts whose timestamp falls inside it are returned.
func (ws *WorkoutService) ListWorkouts(ctx context.Context, userID string, dates *DateRange) ([]*models.Workout, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(ws.Table),
		KeyConditionExpression: aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#uid": models.UserIDAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}

	if dates != nil {
		if err := dates.Validate(); err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String("#ts BETWEEN :startDate AND :endDate")
		input.ExpressionAttributeNames["#ts"] = models.TimestampAttribute
		input.ExpressionAttributeValues[":startDate"] = &types.AttributeValueMemberS{Value: models.FormatTimestamp(dates.Start)}
		input.ExpressionAttributeValues[":endDate"] = &types.AttributeValueMemberS{Value: models.FormatTimestamp(dates.End)}
	}

	items, err := ws.Dynamo.QueryAll(ctx, input)
	if err != nil {
		return nil, err
	}

	workouts := make([]*models.Workout, 0, len(items))
	for _, item := range items {
		workout, err := utils.FromAttributeValueMap(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode workout %q: %w", utils.ExtractString(item, models.WorkoutIDAttribute), err)
		}
		workouts = append(workouts, workout)
	}
	return workouts, nil
}

// CreateWorkout stores a new workout for userID built from fields.
//
// Caller fields are applied first and UserId, workoutId and timestamp are set
// after them, so the synthesized values always win. The put is unconditional:
// a second workout for the same user in the same second gets the same
// workoutId and replaces the first.
func (ws *WorkoutService) CreateWorkout(ctx context.Context, userID string, fields *models.Attributes) (*models.Workout, error) {
	now := ws.Now().UTC()

	workout := models.NewAttributes()
	if normalized, ok := utils.ToDecimalTree(fields).(*models.Attributes); ok {
		workout.Merge(normalized)
	}
	workout.Set(models.UserIDAttribute, userID)
	workout.Set(models.WorkoutIDAttribute, models.WorkoutID(userID, now))
	workout.Set(models.TimestampAttribute, models.FormatTimestamp(now))

	item, err := utils.ToAttributeValueMap(workout)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workout: %w", err)
	}

	if err := ws.Dynamo.PutItem(ctx, ws.Table, item); err != nil {
		return nil, err
	}

	ws.Dynamo.Logger.Info("workout saved",
		zap.String("userId", userID),
		zap.String("workoutId", models.WorkoutID(userID, now)),
	)
	return workout, nil
}
