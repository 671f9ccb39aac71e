package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mofit_api/models"
	"mofit_api/testutil"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkoutFixture(t *testing.T, now time.Time) (*WorkoutService, *testutil.FakeDynamo) {
	t.Helper()
	fake := testutil.NewFakeDynamo(map[string]testutil.KeySchema{
		models.WorkoutsTable: {PartitionKey: models.UserIDAttribute, SortKey: models.WorkoutIDAttribute},
	})
	service := NewWorkoutService(NewDynamoService(fake, nil), "")
	service.Now = func() time.Time { return now }
	return service, fake
}

func seedWorkout(fake *testutil.FakeDynamo, userID string, at time.Time) {
	fake.Seed(models.WorkoutsTable, map[string]types.AttributeValue{
		models.UserIDAttribute:    &types.AttributeValueMemberS{Value: userID},
		models.WorkoutIDAttribute: &types.AttributeValueMemberS{Value: models.WorkoutID(userID, at)},
		models.TimestampAttribute: &types.AttributeValueMemberS{Value: models.FormatTimestamp(at)},
	})
}

func TestCreateWorkoutSynthesizesKeys(t *testing.T) {
	now := time.Date(2026, time.October, 16, 8, 0, 0, 250000000, time.UTC)
	service, fake := newWorkoutFixture(t, now)

	workout, err := service.CreateWorkout(context.Background(), "user-1", mustDecode(t, `{"durationMinutes": 30.5, "exercise": "hammer curl"}`))
	require.NoError(t, err)

	id, _ := workout.GetString(models.WorkoutIDAttribute)
	assert.Equal(t, "user-1-1792137600", id)
	ts, _ := workout.GetString(models.TimestampAttribute)
	assert.Equal(t, "2026-10-16T08:00:00.250000Z", ts)

	require.Len(t, fake.Puts, 1)
	item := fake.Puts[0].Item
	assert.Equal(t, &types.AttributeValueMemberN{Value: "30.5"}, item["durationMinutes"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "user-1"}, item[models.UserIDAttribute])
	assert.Nil(t, fake.Puts[0].ConditionExpression)
}

func TestCreateWorkoutSynthesizedFieldsWin(t *testing.T) {
	now := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	service, fake := newWorkoutFixture(t, now)

	_, err := service.CreateWorkout(context.Background(), "user-1", mustDecode(t, `{"UserId": "user-2", "workoutId": "forged", "timestamp": "1999-01-01", "reps": 8}`))
	require.NoError(t, err)

	items := fake.Items(models.WorkoutsTable)
	require.Len(t, items, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "user-1"}, items[0][models.UserIDAttribute])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "user-1-1792137600"}, items[0][models.WorkoutIDAttribute])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-10-16T08:00:00.000000Z"}, items[0][models.TimestampAttribute])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "8"}, items[0]["reps"])
}

func TestCreateWorkoutSameSecondCollides(t *testing.T) {
	now := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	service, fake := newWorkoutFixture(t, now)

	first, err := service.CreateWorkout(context.Background(), "user-1", mustDecode(t, `{"set": 1}`))
	require.NoError(t, err)

	service.Now = func() time.Time { return now.Add(900 * time.Millisecond) }
	second, err := service.CreateWorkout(context.Background(), "user-1", mustDecode(t, `{"set": 2}`))
	require.NoError(t, err)

	firstID, _ := first.GetString(models.WorkoutIDAttribute)
	secondID, _ := second.GetString(models.WorkoutIDAttribute)
	assert.Equal(t, firstID, secondID)

	items := fake.Items(models.WorkoutsTable)
	require.Len(t, items, 1, "second put replaces the first")
	assert.Equal(t, &types.AttributeValueMemberN{Value: "2"}, items[0]["set"])
}

func TestListWorkoutsNewestFirstAcrossPages(t *testing.T) {
	base := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	service, fake := newWorkoutFixture(t, base)
	fake.PageSize = 2

	for i := 0; i < 5; i++ {
		seedWorkout(fake, "user-1", base.Add(time.Duration(i)*time.Hour))
	}
	seedWorkout(fake, "user-2", base)

	workouts, err := service.ListWorkouts(context.Background(), "user-1", nil)
	require.NoError(t, err)
	require.Len(t, workouts, 5)
	assert.Len(t, fake.Queries, 3)

	var ids []string
	for _, w := range workouts {
		id, _ := w.GetString(models.WorkoutIDAttribute)
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i-1], ids[i])
	}
	assert.Equal(t, models.WorkoutID("user-1", base.Add(4*time.Hour)), ids[0])
	assert.False(t, *fake.Queries[0].ScanIndexForward)
}

func TestListWorkoutsWithDateRange(t *testing.T) {
	base := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	service, fake := newWorkoutFixture(t, base)
	for i := 0; i < 4; i++ {
		seedWorkout(fake, "user-1", base.AddDate(0, 0, i))
	}

	workouts, err := service.ListWorkouts(context.Background(), "user-1", &DateRange{
		Start: base.AddDate(0, 0, 1),
		End:   base.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	require.Len(t, workouts, 2)

	ts, _ := workouts[0].GetString(models.TimestampAttribute)
	assert.Equal(t, "2026-10-03T12:00:00.000000Z", ts)
}

func TestListWorkoutsRejectsBadRange(t *testing.T) {
	service, _ := newWorkoutFixture(t, time.Now())
	now := time.Now()

	_, err := service.ListWorkouts(context.Background(), "user-1", &DateRange{Start: now, End: now.Add(-time.Hour)})
	assert.Error(t, err)

	_, err = service.ListWorkouts(context.Background(), "user-1", &DateRange{Start: now})
	assert.Error(t, err)
}

func TestListWorkoutsEmptyPartition(t *testing.T) {
	service, _ := newWorkoutFixture(t, time.Now())

	workouts, err := service.ListWorkouts(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestCreateWorkoutStoreError(t *testing.T) {
	service, fake := newWorkoutFixture(t, time.Now())
	fake.Err = errors.New("ResourceNotFoundException")

	_, err := service.CreateWorkout(context.Background(), "user-1", models.NewAttributes())
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "put item", storeErr.Op)
}

func TestCreateWorkoutKeepsDecimalPrecision(t *testing.T) {
	service, fake := newWorkoutFixture(t, time.Now())

	fields := models.NewAttributes()
	fields.Set("score", 0.1)
	fields.Set("weight", decimal.RequireFromString("12.3456789012345678901"))

	_, err := service.CreateWorkout(context.Background(), "user-1", fields)
	require.NoError(t, err)

	item := fake.Puts[0].Item
	assert.Equal(t, &types.AttributeValueMemberN{Value: "0.1"}, item["score"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.3456789012345678901"}, item["weight"])
}
