package notifier

import (
	"fmt"

	"github.com/avast/retry-go"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Subscriber represents an AMQP trigger subscriber
type Subscriber struct {
	config     AMQPConfig
	topics     []string
	tag        string
	connection *amqp.Connection
	channel    *amqp.Channel
	queue      *amqp.Queue
	logger     *zap.SugaredLogger
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(config AMQPConfig, logger *zap.SugaredLogger) *Subscriber {
	topics := config.Topics
	if len(topics) == 0 {
		topics = []string{"status.*"}
	}

	return &Subscriber{
		config: config,
		topics: topics,
		tag:    config.Tag,
		logger: logger,
	}
}

// Connect with the configured AMQP broker
func (s *Subscriber) dial() error {
	var err error

	if s.config.TLS {
		s.connection, err = amqp.DialTLS(s.config.DSN, nil)
	} else {
		s.connection, err = amqp.Dial(s.config.DSN)
	}
	if err != nil {
		return fmt.Errorf("subscriber: %v", err)
	}

	s.logger.Info("subscriber: connection established")

	return nil
}

// Get a Channel for the deliveries
func (s *Subscriber) getChannel() error {
	var err error

	s.channel, err = s.connection.Channel()
	if err != nil {
		s.logger.Errorf("subscriber: %s", err)

		return fmt.Errorf("subscriber: failed to get Channel")
	}

	s.logger.Info("subscriber: got Channel")

	return nil
}

// Declare a durable Queue for the deliveries. Triggers must survive a
// dispatcher restart, so the queue is neither exclusive nor auto-deleted.
func (s *Subscriber) declareQueue() (*amqp.Queue, error) {
	queueName := fmt.Sprintf("covid-status-notifier-%s", s.tag)
	s.logger.Infof("subscriber: declaring Queue %v", queueName)

	queue, err := s.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		s.logger.Errorf("subscriber: %s", err)

		return nil, fmt.Errorf("subscriber: failed to declare Queue")
	}

	s.logger.Info("subscriber: declared Queue")

	return &queue, nil
}

// Bind the Queue to the configured topics
func (s *Subscriber) bindQueue() error {
	if s.queue == nil {
		return fmt.Errorf("subscriber: Queue not declared")
	}

	for _, topic := range s.topics {
		s.logger.Infof("subscriber: binding topic to Exchange (key: %q)", topic)

		err := s.channel.QueueBind(
			s.queue.Name,      // name
			topic,             // key
			s.config.Exchange, // exchange
			false,             // noWait
			nil,               // arguments
		)
		if err != nil {
			s.logger.Errorf("subscriber: %s", err)

			return fmt.Errorf("subscriber: failed to bind Queue")
		}
	}

	return nil
}

// Subscribe to the topics defined in the AMQPConfig. Deliveries require an
// explicit ack so a failed dispatch can be redelivered.
func (s *Subscriber) Subscribe() (<-chan amqp.Delivery, error) {
	err := s.dial()
	if err != nil {
		return nil, err
	}

	err = retry.Do(
		func() error {
			err := s.getChannel()
			if err != nil {
				return err
			}

			s.queue, err = s.declareQueue()
			if err != nil {
				return err
			}

			err = s.bindQueue()
			if err != nil {
				return err
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := s.channel.Consume(
		s.queue.Name,
		s.tag, // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("subscriber: failed to consume: %v", err)
	}

	return deliveries, nil
}

// Shutdown the Subscriber
func (s *Subscriber) Shutdown() error {
	s.logger.Info("subscriber: shutting down")

	if s.connection == nil {
		s.logger.Info("subscriber: shutdown OK")

		return nil
	}

	if s.channel != nil {
		if err := s.channel.Cancel(s.tag, false); err != nil {
			return fmt.Errorf("subscriber: failed to cancel consumer: %v", err)
		}
	}

	if err := s.connection.Close(); err != nil {
		return fmt.Errorf("AMQP connection close error: %s", err)
	}

	s.logger.Info("subscriber: shutdown OK")

	return nil
}
