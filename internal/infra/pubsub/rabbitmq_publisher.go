package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type rabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewRabbitMQPublisher publishes checkout events as persistent messages on a
// durable queue through the default exchange.
func NewRabbitMQPublisher(url, queue string, logger *slog.Logger) (service.EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()

		return nil, errors.Wrap(err, "failed to open RabbitMQ channel")
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()

		return nil, errors.Wrapf(err, "failed to declare queue %s", queue)
	}

	logger.Info("RabbitMQ publisher initialized", slog.String("queue", queue))

	return &rabbitMQPublisher{conn: conn, channel: ch, queue: queue, logger: logger}, nil
}

func (p *rabbitMQPublisher) PublishCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	headers := amqp.Table{}
	for k, v := range eventAttributes(event) {
		headers[k] = v
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.CheckoutID.String(),
		CorrelationId: event.RequestID,
		Timestamp:     time.Now().UTC(),
		Type:          "checkout.completed",
		Headers:       headers,
		Body:          body,
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return errors.Wrap(err, "failed to publish checkout event")
	}

	p.logger.Debug("[RabbitMQ] Checkout event published",
		slog.String("checkout_id", event.CheckoutID.String()),
	)

	return nil
}

func (p *rabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var chErr error
	if p.channel != nil {
		chErr = p.channel.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(chErr)
}
