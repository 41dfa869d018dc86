package domain

import "time"

// DefaultUser is recorded when a request does not name its caller.
const DefaultUser = "anonymous"

// SequenceRequest is the inbound /predict payload.
type SequenceRequest struct {
	Sequence string `json:"sequence"`
	User     string `json:"user,omitempty"`
}

// UserOrDefault returns the caller name, falling back to DefaultUser.
func (r SequenceRequest) UserOrDefault() string {
	if r.User == "" {
		return DefaultUser
	}
	return r.User
}

// PredictionRow is one labeled probability returned by the backend.
type PredictionRow struct {
	Target      string  `json:"target"`
	Probability float64 `json:"probability"`
}

// PredictionResult is the outcome of a single prediction request.
// Predictions keeps the order the backend returned.
type PredictionResult struct {
	Sequence    string          `json:"sequence"`
	Predictions []PredictionRow `json:"predictions"`
	Error       string          `json:"error,omitempty"`
}

// Top returns the row with the highest probability.
func (r PredictionResult) Top() (PredictionRow, bool) {
	if len(r.Predictions) == 0 {
		return PredictionRow{}, false
	}
	top := r.Predictions[0]
	for _, row := range r.Predictions[1:] {
		if row.Probability > top.Probability {
			top = row
		}
	}
	return top, true
}

// Notification is the record handed to the side-channel sinks after a
// successful prediction.
type Notification struct {
	RequestID      string          `json:"request_id,omitempty"     db:"request_id"`
	Sequence       string          `json:"sequence"                 db:"sequence"`
	User           string          `json:"user"                     db:"user_name"`
	Source         string          `json:"source"                   db:"source"`
	Predictions    []PredictionRow `json:"predictions"              db:"-"`
	TopTarget      string          `json:"top_target,omitempty"     db:"top_target"`
	TopProbability float64         `json:"top_probability"          db:"top_probability"`
	Timestamp      time.Time       `json:"timestamp"                db:"created_at"`
}
