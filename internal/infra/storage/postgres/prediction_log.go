package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// PredictionLogRepo implements notify.Sink on the prediction_log table.
type PredictionLogRepo struct {
	db *DB
}

// NewPredictionLogRepo creates a new PostgreSQL prediction log repository.
func NewPredictionLogRepo(db *DB) *PredictionLogRepo {
	return &PredictionLogRepo{db: db}
}

type predictionLogRow struct {
	RequestID      string    `db:"request_id"`
	Sequence       string    `db:"sequence"`
	User           string    `db:"user_name"`
	Source         string    `db:"source"`
	Predictions    string    `db:"predictions"`
	TopTarget      string    `db:"top_target"`
	TopProbability float64   `db:"top_probability"`
	CreatedAt      time.Time `db:"created_at"`
}

const insertPredictionLog = `
INSERT INTO prediction_log
    (request_id, sequence, user_name, source, predictions, top_target, top_probability, created_at)
VALUES
    (:request_id, :sequence, :user_name, :source, CAST(:predictions AS JSONB), :top_target, :top_probability, :created_at)`

// Name implements notify.Sink.
func (r *PredictionLogRepo) Name() string { return "postgres" }

// Write stores one notification.
func (r *PredictionLogRepo) Write(ctx context.Context, n domain.Notification) error {
	row, err := toRow(n)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, insertPredictionLog, row); err != nil {
		return fmt.Errorf("failed to save prediction log: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, newest first.
func (r *PredictionLogRepo) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	var rows []predictionLogRow
	err := r.db.SelectContext(ctx, &rows, `
SELECT request_id, sequence, user_name, source, predictions::text AS predictions,
       top_target, top_probability, created_at
FROM prediction_log
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction log: %w", err)
	}

	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Close closes the database connection.
func (r *PredictionLogRepo) Close() error {
	return r.db.Close()
}

func toRow(n domain.Notification) (predictionLogRow, error) {
	preds := n.Predictions
	if preds == nil {
		preds = []domain.PredictionRow{}
	}
	data, err := json.Marshal(preds)
	if err != nil {
		return predictionLogRow{}, fmt.Errorf("marshal predictions: %w", err)
	}

	createdAt := n.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return predictionLogRow{
		RequestID:      n.RequestID,
		Sequence:       n.Sequence,
		User:           n.User,
		Source:         n.Source,
		Predictions:    string(data),
		TopTarget:      n.TopTarget,
		TopProbability: n.TopProbability,
		CreatedAt:      createdAt,
	}, nil
}

func fromRow(row predictionLogRow) (domain.Notification, error) {
	var preds []domain.PredictionRow
	if err := json.Unmarshal([]byte(row.Predictions), &preds); err != nil {
		return domain.Notification{}, fmt.Errorf("invalid predictions column: %w", err)
	}
	return domain.Notification{
		RequestID:      row.RequestID,
		Sequence:       row.Sequence,
		User:           row.User,
		Source:         row.Source,
		Predictions:    preds,
		TopTarget:      row.TopTarget,
		TopProbability: row.TopProbability,
		Timestamp:      row.CreatedAt,
	}, nil
}
