package worker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"fairway/internal/events"
	"fairway/internal/models"

	"github.com/rs/zerolog"
)

// Notifier forwards reservation events to an operator webhook. Delivery is
// best effort with bounded retries; a failed notification never fails the
// booking that produced it.
type Notifier struct {
	webhookURL  string
	client      *http.Client
	retryPolicy RetryPolicy
	queue       chan *events.Event
	logger      *zerolog.Logger
}

func NewNotifier(webhookURL string, timeout time.Duration, retry RetryPolicy, logger *zerolog.Logger) *Notifier {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: timeout},
		retryPolicy: retry,
		queue:       make(chan *events.Event, models.NotifyQueueSize),
		logger:      logger,
	}
}

// Enqueue schedules an event for delivery. A full queue drops the event
// rather than blocking the booking path.
func (n *Notifier) Enqueue(event *events.Event) error {
	select {
	case n.queue <- event:
		return nil
	default:
		n.logger.Warn().Str("event_type", event.Type).Msg("notify queue full, event dropped")
		return nil
	}
}

// Subscribe wires the notifier to the event bus for reservation outcomes.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventReservationCreated, n.Enqueue)
	bus.Subscribe(events.EventReservationCancelled, n.Enqueue)
}

// Start consumes the queue until the context is cancelled.
func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info().Str("webhook_url", n.webhookURL).Msg("notifier started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("notifier stopped")
			return
		case event := <-n.queue:
			n.deliver(ctx, event)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, event *events.Event) {
	var lastErr error
	for attempt := 1; attempt <= n.retryPolicy.MaxRetries; attempt++ {
		if err := n.post(ctx, event); err != nil {
			lastErr = err
			delay := n.retryPolicy.NextDelay(attempt)
			n.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("webhook delivery failed")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		return
	}

	n.logger.Error().Err(lastErr).Str("event_type", event.Type).Msg("webhook delivery abandoned")
}

func (n *Notifier) post(ctx context.Context, event *events.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(event.Payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Fairway-Event", event.Type)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
