package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mofit_api/controllers"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxBodyBytes matches the API Gateway payload limit.
const maxBodyBytes = 10 << 20

// RegisterRoutes sets up the routes for the application
func RegisterRoutes(r *mux.Router, profiles *controllers.UserProfileController, workouts *controllers.WorkoutController, logger *zap.Logger) {
	r.HandleFunc("/health", HealthCheckHandler).Methods(http.MethodGet)

	RegisterUserProfileRoutes(r, profiles, logger)
	RegisterWorkoutRoutes(r, workouts, logger)
}

// RegisterUserProfileRoutes sets up routes for user profile operations under /profiles
func RegisterUserProfileRoutes(r *mux.Router, controller *controllers.UserProfileController, logger *zap.Logger) {
	profileRouter := r.PathPrefix("/profiles").Subrouter()
	profileRouter.HandleFunc("/{userId}", Adapt(controller.UpdateUserProfile, logger)).Methods(http.MethodPatch)
	profileRouter.HandleFunc("/{userID}", Adapt(controller.GetUserProfile, logger)).Methods(http.MethodGet)
}

// RegisterWorkoutRoutes sets up routes for workout operations under /workouts
func RegisterWorkoutRoutes(r *mux.Router, controller *controllers.WorkoutController, logger *zap.Logger) {
	workoutRouter := r.PathPrefix("/workouts").Subrouter()
	workoutRouter.HandleFunc("/{userId}", Adapt(controller.ListWorkouts, logger)).Methods(http.MethodGet)
	workoutRouter.HandleFunc("/{userId}", Adapt(controller.CreateWorkout, logger)).Methods(http.MethodPost)
}

// HealthCheckHandler reports that the process is up.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Adapt serves a Lambda handler over plain HTTP by building the proxy event
// API Gateway would have sent.
func Adapt(h controllers.LambdaHandler, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := toProxyRequest(r)
		if err != nil {
			logger.Warn("failed to read request body", zap.Error(err))
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			logger.Error("handler returned an error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeProxyResponse(w, resp)
	}
}

func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	multiHeaders := make(map[string][]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ",")
		multiHeaders[name] = values
	}

	query := make(map[string]string)
	multiQuery := make(map[string][]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[len(values)-1]
		}
		multiQuery[name] = values
	}

	return events.APIGatewayProxyRequest{
		Resource:                        r.URL.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: multiQuery,
		PathParameters:                  mux.Vars(r),
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
		},
	}, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	for name, values := range resp.MultiValueHeaders {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, resp.Body)
}
