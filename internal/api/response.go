package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// Fixed client-facing messages.
const (
	msgRunning         = "Proxy server running"
	msgMissingSequence = "Missing 'sequence' in request"
	msgInvalidBody     = "Invalid JSON body"
	msgRouteNotFound   = "Route not found"
	msgInternal        = "Internal server error"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// predictionResponse keeps "predictions" present even when empty.
type predictionResponse struct {
	Sequence    string                 `json:"sequence"`
	Predictions []domain.PredictionRow `json:"predictions"`
	Error       string                 `json:"error,omitempty"`
}

// buildPredictionResponse maps a prediction outcome to a status and body.
func buildPredictionResponse(result domain.PredictionResult, err error) (int, any) {
	preds := result.Predictions
	if preds == nil {
		preds = []domain.PredictionRow{}
	}

	if err == nil {
		return http.StatusOK, predictionResponse{
			Sequence:    result.Sequence,
			Predictions: preds,
		}
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, errorResponse{Error: msgMissingSequence}
	}

	msg := result.Error
	if msg == "" {
		msg = err.Error()
	}
	return http.StatusInternalServerError, predictionResponse{
		Sequence:    result.Sequence,
		Predictions: []domain.PredictionRow{},
		Error:       msg,
	}
}

func methodNotAllowed(method string) errorResponse {
	return errorResponse{Error: fmt.Sprintf("Method %s not allowed", method)}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
