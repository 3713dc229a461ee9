package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes alerts to a RabbitMQ direct exchange. The consumer
// side (push delivery, e-mail) lives outside this service.
type AMQPSink struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewAMQPSink connects to the broker and declares the exchange, queue,
// and binding.
func NewAMQPSink(url, exchangeName, queueName string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	sink := &AMQPSink{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := sink.setup(); err != nil {
		sink.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return sink, nil
}

func (s *AMQPSink) setup() error {
	err := s.channel.ExchangeDeclare(
		s.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = s.channel.QueueDeclare(
		s.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = s.channel.QueueBind(s.queueName, s.queueName, s.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish sends one alert as a persistent JSON message.
func (s *AMQPSink) Publish(ctx context.Context, alert Alert) error {
	body, err := alert.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(
		ctx,
		s.exchangeName,
		s.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	return nil
}

// Close releases the channel and connection.
func (s *AMQPSink) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
