package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"mofit_api/models"
	"mofit_api/services"
	"mofit_api/testutil"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileController(t *testing.T) (*UserProfileController, *testutil.FakeDynamo) {
	t.Helper()
	fake := testutil.NewFakeDynamo(map[string]testutil.KeySchema{
		models.UserProfilesTable: {PartitionKey: models.UserIDAttribute},
	})
	service := services.NewUserProfileService(services.NewDynamoService(fake, nil), "")
	return NewUserProfileController(service, nil), fake
}

func seedProfile(fake *testutil.FakeDynamo) {
	fake.Seed(models.UserProfilesTable, map[string]types.AttributeValue{
		models.UserIDAttribute: &types.AttributeValueMemberS{Value: "user-1"},
		"name":                 &types.AttributeValueMemberS{Value: "Sam"},
		"weightKg":             &types.AttributeValueMemberN{Value: "72.5"},
	})
}

func decodeErrorBody(t *testing.T, resp events.APIGatewayProxyResponse) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestGetUserProfile(t *testing.T) {
	controller, fake := newProfileController(t)
	seedProfile(fake)

	resp, err := controller.GetUserProfile(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"userID": "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"UserId":"user-1","name":"Sam","weightKg":72.5}`, resp.Body)
}

func TestGetUserProfileNotFound(t *testing.T) {
	controller, _ := newProfileController(t)

	resp, err := controller.GetUserProfile(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"userId": "ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decodeErrorBody(t, resp)["message"])
}

func TestGetUserProfileMissingParameter(t *testing.T) {
	controller, _ := newProfileController(t)

	resp, err := controller.GetUserProfile(context.Background(), events.APIGatewayProxyRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAMETER", decodeErrorBody(t, resp)["code"])
}

func TestUpdateUserProfile(t *testing.T) {
	controller, fake := newProfileController(t)
	seedProfile(fake)

	resp, err := controller.UpdateUserProfile(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"userId": "user-1"},
		Body:           `{"weightKg": 71.2, "goal": "strength", "UserId": "user-2"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"UserId":"user-1","goal":"strength","name":"Sam","weightKg":71.2}`, resp.Body)

	require.Len(t, fake.Updates, 1)
	assert.NotContains(t, fake.Updates[0].ExpressionAttributeNames, "#UserId")
}

func TestUpdateUserProfileRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		req     events.APIGatewayProxyRequest
		code    string
		message string
	}{
		{
			name:    "missing path parameter",
			req:     events.APIGatewayProxyRequest{Body: `{"goal":"x"}`},
			code:    "MISSING_PARAMETER",
			message: "Missing required parameter: userId",
		},
		{
			name:    "missing body",
			req:     events.APIGatewayProxyRequest{PathParameters: map[string]string{"userId": "user-1"}},
			code:    "INVALID_BODY",
			message: "Request body is required",
		},
		{
			name:    "malformed json",
			req:     events.APIGatewayProxyRequest{PathParameters: map[string]string{"userId": "user-1"}, Body: `{"goal":`},
			code:    "INVALID_BODY",
			message: "Invalid JSON in request body",
		},
		{
			name:    "array body",
			req:     events.APIGatewayProxyRequest{PathParameters: map[string]string{"userId": "user-1"}, Body: `[1,2]`},
			code:    "INVALID_BODY",
			message: "Request body must be a JSON object",
		},
		{
			name:    "only the partition key",
			req:     events.APIGatewayProxyRequest{PathParameters: map[string]string{"userId": "user-1"}, Body: `{"UserId":"user-1"}`},
			code:    "INVALID_BODY",
			message: "Request body has no updatable fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, fake := newProfileController(t)

			resp, err := controller.UpdateUserProfile(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeErrorBody(t, resp)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.message, body["message"])
			assert.Empty(t, fake.Updates)
		})
	}
}

func TestUpdateUserProfileBase64Body(t *testing.T) {
	controller, _ := newProfileController(t)

	resp, err := controller.UpdateUserProfile(context.Background(), events.APIGatewayProxyRequest{
		PathParameters:  map[string]string{"userId": "user-1"},
		Body:            "eyJnb2FsIjoiY2FyZGlvIn0=",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"UserId":"user-1","goal":"cardio"}`, resp.Body)
}

func TestUpdateUserProfileStoreError(t *testing.T) {
	controller, fake := newProfileController(t)
	fake.Err = errors.New("ProvisionedThroughputExceededException")

	resp, err := controller.UpdateUserProfile(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"userId": "user-1"},
		Body:           `{"goal":"x"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeErrorBody(t, resp)
	assert.Equal(t, "STORE_ERROR", body["code"])
	assert.Contains(t, body["message"], "ProvisionedThroughputExceededException")
}

func TestServeRecoversFromPanic(t *testing.T) {
	resp, err := serve(context.Background(), zapNop(), "panicky", events.APIGatewayProxyRequest{}, listCORSHeaders, func() (int, any, error) {
		panic("nil map")
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "Unexpected error: nil map", decodeErrorBody(t, resp)["message"])
}
