package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DispatchPipeline posts one notification per distinct fingerprint. Every
// trigger independently re-checks the guard, so duplicate or racing
// triggers from the ingestion side collapse into a single sent record.
type DispatchPipeline struct {
	guard    DispatchStore
	notifier Notifier
	logger   *zap.SugaredLogger
}

// NewDispatchPipeline creates a new DispatchPipeline
func NewDispatchPipeline(guard DispatchStore, notifier Notifier, logger *zap.SugaredLogger) *DispatchPipeline {
	return &DispatchPipeline{
		guard:    guard,
		notifier: notifier,
		logger:   logger,
	}
}

// RenderTrigger produces the notification body for a trigger payload.
func RenderTrigger(t Trigger) (string, error) {
	switch t.Stream {
	case StreamCase:
		var record CounterRecord
		if err := json.Unmarshal(t.Payload, &record); err != nil {
			return "", fmt.Errorf("dispatch: case payload: %v: %w", err, ErrParse)
		}
		return RenderCase(record), nil
	case StreamHospital:
		var rows []HospitalizationRow
		if err := json.Unmarshal(t.Payload, &rows); err != nil {
			return "", fmt.Errorf("dispatch: hospital payload: %v: %w", err, ErrParse)
		}
		return RenderHospital(rows)
	default:
		return "", fmt.Errorf("dispatch: unknown stream %q: %w", t.Stream, ErrParse)
	}
}

// Handle runs the guarded dispatch for a single trigger. An already-sent
// fingerprint is a successful no-op. The record is marked only after the
// channel confirmed the post, so a failed post stays retryable.
func (p *DispatchPipeline) Handle(ctx context.Context, t Trigger) error {
	sent, err := p.guard.AlreadyDispatched(ctx, t.Fingerprint)
	if err != nil {
		return err
	}
	if sent {
		p.logger.Infof("dispatch: already sent (fingerprint: %s)", t.Fingerprint)
		return nil
	}

	text, err := RenderTrigger(t)
	if err != nil {
		return err
	}

	if err := p.notifier.Post(ctx, text); err != nil {
		return err
	}

	err = p.guard.MarkDispatched(ctx, DispatchRecord{
		Fingerprint: t.Fingerprint,
		Stream:      t.Stream,
		Text:        text,
		Payload:     t.Payload,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	p.logger.Infof("dispatch: posted %s update (fingerprint: %s)", t.Stream, t.Fingerprint)

	return nil
}

// Dispatcher consumes triggers from the queue and feeds them through the
// DispatchPipeline.
type Dispatcher struct {
	subscriber *Subscriber
	pipeline   *DispatchPipeline
	logger     *zap.SugaredLogger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(subscriber *Subscriber, pipeline *DispatchPipeline, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		subscriber: subscriber,
		pipeline:   pipeline,
		logger:     logger,
	}
}

// Run consumes deliveries until the context is canceled or the delivery
// channel closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	deliveries, err := d.subscriber.Subscribe()
	if err != nil {
		return err
	}

	defer d.subscriber.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			d.handle(ctx, msg)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg amqp.Delivery) {
	if _, err := NewTopic(msg.RoutingKey).Stream(); err != nil {
		d.logger.Warnf("dispatcher: %s", err)
	}

	var t Trigger
	if err := json.Unmarshal(msg.Body, &t); err != nil {
		d.logger.Errorf("dispatcher: bad trigger payload: %v", err)
		msg.Reject(false)
		return
	}

	if err := d.pipeline.Handle(ctx, t); err != nil {
		// A malformed payload will not improve on redelivery; everything
		// else is retryable through the queue.
		if errors.Is(err, ErrParse) {
			d.logger.Errorf("dispatcher: dropping trigger (fingerprint: %s): %s", t.Fingerprint, err)
			msg.Reject(false)
			return
		}

		d.logger.Errorf("dispatcher: %s", err)
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}
