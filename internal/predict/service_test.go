package predict

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/seqproxy/internal/core/domain"
	"github.com/vietddude/seqproxy/internal/infra/inference"
	"github.com/vietddude/seqproxy/internal/retry"
)

// Test doubles defined locally to control behavior per test

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

type scriptedClient struct {
	mu      sync.Mutex
	calls   int
	seen    []string
	replies []reply
}

type reply struct {
	raw string
	err error
}

func (c *scriptedClient) Call(ctx context.Context, sequence string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.replies[min(c.calls, len(c.replies)-1)]
	c.calls++
	c.seen = append(c.seen, sequence)
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.raw), nil
}

func testConfig() Config {
	return Config{
		Retry:  retry.Config{MaxAttempts: 3, Delay: time.Millisecond},
		Source: "test",
	}
}

func TestValidateSequence(t *testing.T) {
	seq, err := ValidateSequence("  MKVLAA\n")
	require.NoError(t, err)
	assert.Equal(t, "MKVLAA", seq)

	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := ValidateSequence(raw)
		assert.True(t, domain.IsValidation(err), "expected validation error for %q", raw)
		assert.EqualError(t, err, "missing sequence")
	}
}

func TestPredict_ValidationShortCircuit(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		client := inference.ClientFunc(func(ctx context.Context, sequence string) (json.RawMessage, error) {
			t.Fatal("backend must not be called for an empty sequence")
			return nil, nil
		})
		notifier := &recordingNotifier{}
		svc := NewService(client, notifier, testConfig())

		result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: raw})

		assert.True(t, domain.IsValidation(err))
		assert.Equal(t, raw, result.Sequence)
		assert.NotNil(t, result.Predictions)
		assert.Empty(t, result.Predictions)
		assert.Empty(t, notifier.all())
	}
}

func TestPredict_Success(t *testing.T) {
	client := &scriptedClient{replies: []reply{{raw: `[["Gram+", 0.81], ["Fungus", 0.55]]`}}}
	notifier := &recordingNotifier{}
	svc := NewService(client, notifier, testConfig())

	ctx := domain.WithRequestID(context.Background(), "req-42")
	result, err := svc.Predict(ctx, domain.SequenceRequest{Sequence: " MKVLAA "})
	require.NoError(t, err)

	assert.Equal(t, domain.PredictionResult{
		Sequence: "MKVLAA",
		Predictions: []domain.PredictionRow{
			{Target: "Gram+", Probability: 0.81},
			{Target: "Fungus", Probability: 0.55},
		},
	}, result)
	assert.Equal(t, []string{"MKVLAA"}, client.seen)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "req-42", sent[0].RequestID)
	assert.Equal(t, domain.DefaultUser, sent[0].User)
	assert.Equal(t, "test", sent[0].Source)
	assert.Equal(t, "Gram+", sent[0].TopTarget)
	assert.Equal(t, 0.81, sent[0].TopProbability)
}

func TestPredict_RecoversAfterFailures(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{err: errors.New("timeout")},
		{err: errors.New("http 503: loading")},
		{raw: `{"data": [["Gram+", 0.2]]}`},
	}}
	svc := NewService(client, nil, testConfig())

	result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKV"})
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []domain.PredictionRow{{Target: "Gram+", Probability: 0.2}}, result.Predictions)
	assert.Empty(t, result.Error)
}

func TestPredict_Exhausted(t *testing.T) {
	last := errors.New("timeout")
	client := &scriptedClient{replies: []reply{
		{err: errors.New("connection reset")},
		{err: errors.New("http 502: bad gateway")},
		{err: last},
	}}
	notifier := &recordingNotifier{}
	svc := NewService(client, notifier, testConfig())

	result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKVLAA"})

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 3, upstream.Attempts)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, domain.PredictionResult{
		Sequence:    "MKVLAA",
		Predictions: []domain.PredictionRow{},
		Error:       "timeout",
	}, result)
	assert.Empty(t, notifier.all())
}

func TestPredict_MalformedDegrades(t *testing.T) {
	client := &scriptedClient{replies: []reply{{raw: `{"unexpected": true}`}}}
	notifier := &recordingNotifier{}
	svc := NewService(client, notifier, testConfig())

	result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKV"})
	require.NoError(t, err)
	assert.NotNil(t, result.Predictions)
	assert.Empty(t, result.Predictions)
	assert.Len(t, notifier.all(), 1)
}

func TestPredict_MalformedStrict(t *testing.T) {
	client := &scriptedClient{replies: []reply{{raw: `"nothing useful"`}}}
	cfg := testConfig()
	cfg.Strict = true
	svc := NewService(client, nil, cfg)

	result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKV"})
	assert.True(t, domain.IsUpstream(err))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	assert.Equal(t, "MKV", result.Sequence)
	assert.Equal(t, domain.ErrMalformedPayload.Error(), result.Error)
}

func TestPredict_ClientPanicIsRetried(t *testing.T) {
	calls := 0
	client := inference.ClientFunc(func(ctx context.Context, sequence string) (json.RawMessage, error) {
		calls++
		if calls == 1 {
			panic("nil map")
		}
		return json.RawMessage(`[["Gram+", 0.5]]`), nil
	})
	svc := NewService(client, nil, testConfig())

	result, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKV"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, result.Predictions, 1)
}

func TestPredict_UserIsForwarded(t *testing.T) {
	client := &scriptedClient{replies: []reply{{raw: `[]`}}}
	notifier := &recordingNotifier{}
	svc := NewService(client, notifier, testConfig())

	_, err := svc.Predict(context.Background(), domain.SequenceRequest{Sequence: "MKV", User: "lab-7"})
	require.NoError(t, err)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "lab-7", sent[0].User)
	assert.Empty(t, sent[0].TopTarget)
}
