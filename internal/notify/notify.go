// Package notify delivers user notifications through a pluggable sink.
// Delivery is fire-and-forget: the dispatcher buffers alerts and a
// background goroutine publishes them, so a slow or failing sink can
// never block the request path that produced the alert.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"spendwise/internal/logger"
)

// Alert is a single notification destined for a user's devices.
type Alert struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert kinds.
const (
	KindBudgetExceeded = "budget_exceeded"
	KindCategoryLimit  = "category_limit"
)

// ToJSON serializes the alert for the wire.
func (a Alert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// Sink is a destination for alerts.
type Sink interface {
	Publish(ctx context.Context, alert Alert) error
	Close() error
}

// LogSink writes alerts to the application log. Used when no broker is
// configured.
type LogSink struct{}

// Publish logs the alert.
func (LogSink) Publish(_ context.Context, alert Alert) error {
	logger.Get().Infow("notification",
		"user_id", alert.UserID,
		"kind", alert.Kind,
		"title", alert.Title,
		"body", alert.Body,
	)
	return nil
}

// Close implements Sink.
func (LogSink) Close() error { return nil }

// Dispatcher decouples alert producers from the sink. Dispatch never
// blocks; when the buffer is full the alert is dropped and logged.
type Dispatcher struct {
	sink  Sink
	queue chan Alert
	done  chan struct{}
}

// NewDispatcher starts a dispatcher draining into sink with the given
// buffer size.
func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan Alert, buffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for alert := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.sink.Publish(ctx, alert); err != nil {
			logger.Get().Errorw("failed to publish notification",
				"error", err,
				"user_id", alert.UserID,
				"kind", alert.Kind,
			)
		}
		cancel()
	}
}

// Dispatch queues an alert for delivery without blocking the caller.
func (d *Dispatcher) Dispatch(alert Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	select {
	case d.queue <- alert:
	default:
		logger.Get().Warnw("notification buffer full, dropping alert",
			"user_id", alert.UserID,
			"kind", alert.Kind,
		)
	}
}

// Close drains pending alerts, then closes the sink.
func (d *Dispatcher) Close() error {
	close(d.queue)
	<-d.done
	return d.sink.Close()
}
