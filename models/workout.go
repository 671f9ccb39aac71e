package models

import (
	"strconv"
	"time"
)

// WorkoutsTable is the default DynamoDB table name for workouts
const WorkoutsTable = "MOFITWorkouts"

const (
	// WorkoutIDAttribute is the sort key of the workouts table.
	WorkoutIDAttribute = "workoutId"
	// TimestampAttribute holds the server-assigned creation time.
	TimestampAttribute = "timestamp"
)

// TimestampLayout is the stored timestamp format. Fixed width so that
// timestamps compare correctly as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Workout is an immutable workout record keyed by (UserId, workoutId).
type Workout = Attributes

// WorkoutID derives the sort key for a workout created at t.
// The key has one-second granularity: two workouts created for the same user
// within the same second share an id.
func WorkoutID(userID string, t time.Time) string {
	return userID + "-" + strconv.FormatInt(t.Unix(), 10)
}

// FormatTimestamp renders t in TimestampLayout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
