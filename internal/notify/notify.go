// Package notify delivers best-effort side-channel records of successful
// predictions. Nothing here can change or delay a client response beyond
// starting a goroutine.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/seqproxy/internal/core/domain"
	"github.com/vietddude/seqproxy/internal/metrics"
)

// MaxTimeout is the upper bound for a single sink delivery.
const MaxTimeout = 5 * time.Second

// Notifier accepts notifications without reporting an outcome.
type Notifier interface {
	Notify(n domain.Notification)
}

// Sink is a destination for notifications.
type Sink interface {
	Name() string
	Write(ctx context.Context, n domain.Notification) error
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(domain.Notification) {}

// Dispatcher fans notifications out to its sinks, each on its own goroutine
// with a bounded timeout. Failures are logged and counted only.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Timeouts outside (0, MaxTimeout] are
// replaced by MaxTimeout.
func NewDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		log:     slog.Default().With("component", "notify"),
	}
}

// Notify schedules delivery to every sink and returns immediately.
func (d *Dispatcher) Notify(n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	for _, s := range d.sinks {
		d.wg.Add(1)
		go d.deliver(s, n)
	}
}

func (d *Dispatcher) deliver(s Sink, n domain.Notification) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationsTotal.WithLabelValues(s.Name(), "panic").Inc()
			d.log.Error("Notification sink panicked", "sink", s.Name(), "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := s.Write(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(s.Name(), "error").Inc()
		d.log.Warn("Notification failed",
			"sink", s.Name(),
			"request_id", n.RequestID,
			"error", err,
		)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(s.Name(), "ok").Inc()
}

// Close stops accepting notifications, waits for in-flight deliveries and
// closes sinks that hold resources.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for notifications: %w", ctx.Err()))
	}

	for _, s := range d.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// LogSink writes notifications to the structured log at debug level.
type LogSink struct{}

// Name implements Sink.
func (LogSink) Name() string { return "log" }

// Write implements Sink.
func (LogSink) Write(ctx context.Context, n domain.Notification) error {
	slog.DebugContext(ctx, "Prediction recorded",
		"request_id", n.RequestID,
		"user", n.User,
		"source", n.Source,
		"sequence_len", len(n.Sequence),
		"predictions", len(n.Predictions),
		"top_target", n.TopTarget,
		"top_probability", n.TopProbability,
	)
	return nil
}
