package controllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mofit_api/auth"
	"mofit_api/errs"
	"mofit_api/models"
	"mofit_api/observability"
	"mofit_api/services"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Handler names, used in logs and metrics.
const (
	HandlerProfileUpdate = "profile-update"
	HandlerProfileGet    = "profile-get"
	HandlerWorkoutList   = "workout-list"
	HandlerWorkoutCreate = "workout-create"
)

// LambdaHandler is the signature every controller method exposes to the
// Lambda runtime.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type handlerFunc func() (int, any, error)

// serve runs fn and turns its outcome, including a panic, into a proxy
// response. The returned Go error is always nil: failures are reported
// through the status code.
func serve(ctx context.Context, logger *zap.Logger, name string, req events.APIGatewayProxyRequest, headers map[string]string, fn handlerFunc) (resp events.APIGatewayProxyResponse, _ error) {
	start := time.Now()
	log := logger.With(
		zap.String("handler", name),
		zap.String("requestId", req.RequestContext.RequestID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = errorResponse(errs.NewInternalServerError(fmt.Errorf("%v", r)), headers)
		}
		observability.RecordRequest(name, resp.StatusCode, time.Since(start))
		log.Info("request handled",
			zap.Int("status", resp.StatusCode),
			zap.Any("pathParameters", req.PathParameters),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	status, payload, err := fn()
	if err != nil {
		httpErr := classify(err)
		if httpErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err))
		} else {
			log.Warn("request rejected", zap.String("code", httpErr.Code), zap.Error(err))
		}
		return errorResponse(httpErr, headers), nil
	}

	return jsonResponse(status, payload, headers), nil
}

// classify maps any error a handler produced onto the error taxonomy.
func classify(err error) *errs.HTTPError {
	if httpErr, ok := errs.As(err); ok {
		return httpErr
	}
	var storeErr *services.StoreError
	if errors.As(err, &storeErr) {
		return errs.NewStoreError(storeErr)
	}
	if errors.Is(err, auth.ErrMissingToken) {
		return errs.NewUnauthorizedError("No authorization token provided").WithCause(err)
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSubjectMismatch) {
		return errs.NewUnauthorizedError("Invalid token or unauthorized").WithCause(err)
	}
	return errs.NewInternalServerError(err)
}

func jsonResponse(status int, payload any, headers map[string]string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(errs.NewInternalServerError(fmt.Errorf("failed to encode response: %w", err)), headers)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(headers),
		Body:       string(body),
	}
}

func errorResponse(httpErr *errs.HTTPError, headers map[string]string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(httpErr)
	return events.APIGatewayProxyResponse{
		StatusCode: httpErr.Status,
		Headers:    responseHeaders(headers),
		Body:       string(body),
	}
}

func responseHeaders(extra map[string]string) map[string]string {
	out := map[string]string{"Content-Type": "application/json"}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// pathParam returns the first non-empty path parameter among names.
func pathParam(req events.APIGatewayProxyRequest, names ...string) (string, error) {
	for _, name := range names {
		if v := strings.TrimSpace(req.PathParameters[name]); v != "" {
			return v, nil
		}
	}
	return "", errs.NewMissingParameterError(names[0])
}

// headerValue looks name up case-insensitively.
func headerValue(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) && v != "" {
			return v
		}
	}
	for k, values := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// decodeBody parses the request body as a JSON object.
func decodeBody(req events.APIGatewayProxyRequest) (*models.Attributes, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, errs.NewInvalidBodyError("Request body is required")
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, errs.NewInvalidBodyError("Request body is not valid base64").WithCause(err)
		}
		body = decoded
	}

	attrs, err := models.DecodeAttributes(body)
	if errors.Is(err, models.ErrNotAnObject) {
		return nil, errs.NewInvalidBodyError("Request body must be a JSON object").WithCause(err)
	}
	if err != nil {
		return nil, errs.NewInvalidBodyError("Invalid JSON in request body").WithCause(err)
	}
	return attrs, nil
}
