// Package predict orchestrates a single prediction: validation, the retried
// backend call, normalization and the side-channel notification.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/seqproxy/internal/core/domain"
	"github.com/vietddude/seqproxy/internal/infra/inference"
	"github.com/vietddude/seqproxy/internal/metrics"
	"github.com/vietddude/seqproxy/internal/normalize"
	"github.com/vietddude/seqproxy/internal/notify"
	"github.com/vietddude/seqproxy/internal/retry"
)

// DefaultSource tags notifications when none is configured.
const DefaultSource = "seqproxy"

// Config holds prediction behavior settings.
type Config struct {
	Retry retry.Config
	// Strict turns a payload without any recognizable rows into an upstream
	// failure instead of an empty prediction list.
	Strict bool
	Source string
}

// Service runs predictions against an injected backend client.
type Service struct {
	client   inference.Client
	notifier notify.Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a prediction service. A nil notifier disables the side
// channel.
func NewService(client inference.Client, notifier notify.Notifier, cfg Config) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	return &Service{
		client:   client,
		notifier: notifier,
		cfg:      cfg,
		log:      slog.Default().With("component", "predict"),
		now:      time.Now,
	}
}

// Predict validates req, calls the backend with retries and returns the
// normalized result. The returned result always carries the sequence, also
// when err is a *domain.ValidationError or *domain.UpstreamError.
func (s *Service) Predict(ctx context.Context, req domain.SequenceRequest) (domain.PredictionResult, error) {
	result := domain.PredictionResult{
		Sequence:    req.Sequence,
		Predictions: []domain.PredictionRow{},
	}

	seq, err := ValidateSequence(req.Sequence)
	if err != nil {
		return result, err
	}
	result.Sequence = seq

	log := s.log.With("request_id", domain.RequestIDFrom(ctx))
	log.Debug("Received sequence", "length", len(seq), "user", req.UserOrDefault())

	attempts := 0
	retryCfg := s.cfg.Retry
	retryCfg.OnFailure = func(st retry.State) {
		kind := retry.ClassifyError(st.LastErr)
		metrics.UpstreamErrorsTotal.WithLabelValues(string(kind)).Inc()
		log.Warn("Inference attempt failed",
			"attempt", st.Attempt,
			"final", st.Final,
			"error_type", kind,
			"error", st.LastErr,
		)
	}

	start := time.Now()
	raw, err := retry.Do(ctx, retryCfg, func(ctx context.Context) (json.RawMessage, error) {
		attempts++
		return s.call(ctx, seq)
	})
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RetriesExhausted.Inc()
		log.Error("Inference failed", "attempts", attempts, "error", err)
		result.Error = err.Error()
		return result, &domain.UpstreamError{Cause: err, Attempts: attempts}
	}

	payload := normalize.Decode(raw)
	metrics.PayloadShapes.WithLabelValues(shapeName(payload)).Inc()

	if m, ok := payload.(normalize.Malformed); ok {
		log.Warn("Unrecognized upstream payload", "reason", m.Reason, "strict", s.cfg.Strict)
		if s.cfg.Strict {
			result.Error = domain.ErrMalformedPayload.Error()
			return result, &domain.UpstreamError{Cause: domain.ErrMalformedPayload, Attempts: attempts}
		}
	}

	result.Predictions = normalize.Rows(payload)
	metrics.PredictionRows.Observe(float64(len(result.Predictions)))
	log.Debug("Prediction complete", "attempts", attempts, "rows", len(result.Predictions))

	s.notifier.Notify(s.notification(ctx, req, result))
	return result, nil
}

// call runs one attempt and turns a panicking client into an error.
func (s *Service) call(ctx context.Context, seq string) (raw json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, fmt.Errorf("inference client panic: %v", r)
		}
		if err != nil {
			metrics.UpstreamCallsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.UpstreamCallsTotal.WithLabelValues("ok").Inc()
		}
	}()
	return s.client.Call(ctx, seq)
}

func (s *Service) notification(
	ctx context.Context,
	req domain.SequenceRequest,
	result domain.PredictionResult,
) domain.Notification {
	n := domain.Notification{
		RequestID:   domain.RequestIDFrom(ctx),
		Sequence:    result.Sequence,
		User:        req.UserOrDefault(),
		Source:      s.cfg.Source,
		Predictions: result.Predictions,
		Timestamp:   s.now().UTC(),
	}
	if top, ok := result.Top(); ok {
		n.TopTarget = top.Target
		n.TopProbability = top.Probability
	}
	return n
}

func shapeName(p normalize.Payload) string {
	switch p.(type) {
	case normalize.PairList:
		return "pair_list"
	case normalize.WrappedTable:
		return "wrapped_table"
	default:
		return "malformed"
	}
}
