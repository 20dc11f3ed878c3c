package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/common-origin/meal-agent-sub001/internal/assistant"
	"github.com/common-origin/meal-agent-sub001/internal/household"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}

type validationBody struct {
	Error  string                 `json:"error"`
	Fields []household.FieldError `json:"fields"`
}

// writeError maps domain errors onto status codes.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upstream *assistant.UpstreamError
		invalid  *household.ValidationError
	)
	switch {
	case errors.As(err, &invalid):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(validationBody{Error: "validation failed", Fields: invalid.Fields}) //nolint:errcheck
	case errors.As(err, &upstream):
		jsonError(w, "AI service request failed, please try again", http.StatusBadGateway)
	case errors.Is(err, assistant.ErrInvalidRequest):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, planner.ErrNoPlan),
		errors.Is(err, planner.ErrInvalidDay),
		errors.Is(err, household.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, planner.ErrAlreadyPlanned):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assistant.ErrNotConfigured):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())), zap.String("path", r.URL.Path), zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
