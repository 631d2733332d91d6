package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// TriggerPublisher enqueues notification triggers for the dispatch side.
// Delivery is at-least-once; the dispatch guard deduplicates.
type TriggerPublisher interface {
	Publish(ctx context.Context, t Trigger) error
}

// AMQPPublisher represents an AMQP trigger publisher
type AMQPPublisher struct {
	config     AMQPConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	logger     *zap.SugaredLogger
}

// NewAMQPPublisher creates a new AMQPPublisher
func NewAMQPPublisher(config AMQPConfig, logger *zap.SugaredLogger) *AMQPPublisher {
	return &AMQPPublisher{
		config: config,
		logger: logger,
	}
}

// Connect with the configured AMQP broker
func (p *AMQPPublisher) dial() error {
	var err error

	if p.config.TLS {
		p.connection, err = amqp.DialTLS(p.config.DSN, nil)
	} else {
		p.connection, err = amqp.Dial(p.config.DSN)
	}
	if err != nil {
		return fmt.Errorf("publisher: %v", err)
	}

	p.logger.Info("publisher: connection established")

	return nil
}

// Connect dials the broker and declares the trigger exchange.
func (p *AMQPPublisher) Connect() error {
	if err := p.dial(); err != nil {
		return err
	}

	return retry.Do(
		func() error {
			channel, err := p.connection.Channel()
			if err != nil {
				return fmt.Errorf("publisher: failed to get Channel: %v", err)
			}

			err = channel.ExchangeDeclare(
				p.config.Exchange,
				"topic",
				true,  // durable
				false, // autoDelete
				false, // internal
				false, // noWait
				nil,   // arguments
			)
			if err != nil {
				return fmt.Errorf("publisher: failed to declare Exchange: %v", err)
			}

			p.channel = channel

			return nil
		},
	)
}

// Publish sends a single trigger with routing key status.<stream>.
func (p *AMQPPublisher) Publish(_ context.Context, t Trigger) error {
	if p.channel == nil {
		return fmt.Errorf("publisher: not connected")
	}

	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("publisher: marshal trigger: %v", err)
	}

	key := fmt.Sprintf("status.%s", t.Stream)

	err = p.channel.Publish(
		p.config.Exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publisher: publish %s: %v", key, err)
	}

	p.logger.Infof("publisher: enqueued trigger (key: %q, fingerprint: %s)", key, t.Fingerprint)

	return nil
}

// Shutdown the AMQPPublisher
func (p *AMQPPublisher) Shutdown() error {
	p.logger.Info("publisher: shutting down")

	if p.connection == nil {
		return nil
	}

	if err := p.connection.Close(); err != nil {
		return fmt.Errorf("AMQP connection close error: %s", err)
	}

	p.logger.Info("publisher: shutdown OK")

	return nil
}
