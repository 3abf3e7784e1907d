package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/worker/handler"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/constants"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
)

const consumerPrefetch = 10

// eventProcessor is the part of CheckoutHandler the consumer needs.
type eventProcessor interface {
	Process(ctx context.Context, data []byte, attributes map[string]string) error
}

type queueConsumer struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor eventProcessor

	mu       sync.Mutex
	conn     *amqp.Connection
	stopping bool
}

// QueueConsumerParams holds dependencies for the RabbitMQ consumer
type QueueConsumerParams struct {
	fx.In

	Lc              fx.Lifecycle
	Cfg             *config.Config
	Logger          *slog.Logger
	CheckoutHandler *handler.CheckoutHandler
}

// NewQueueConsumer creates the delivery that drains the checkout queue when
// the rabbitmq provider is configured. With other providers it does nothing.
func NewQueueConsumer(params QueueConsumerParams) (delivery.Delivery, error) {
	c := &queueConsumer{
		cfg:       params.Cfg,
		logger:    params.Logger,
		processor: params.CheckoutHandler,
	}

	params.Lc.Append(fx.Hook{
		OnStop: c.stop,
	})

	return c, nil
}

func (c *queueConsumer) Serve(ctx context.Context) error {
	if c.cfg.PubSub == nil || c.cfg.PubSub.Provider != constants.PubSubProviderRabbitMQ {
		c.logger.Info("Queue consumer disabled", slog.String("provider", providerName(c.cfg)))

		return nil
	}

	queue := c.cfg.PubSub.RabbitMQ.Queue
	conn, err := amqp.Dial(c.cfg.PubSub.RabbitMQ.URL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open RabbitMQ channel")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", queue)
	}
	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		return errors.Wrap(err, "failed to set prefetch")
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to consume queue %s", queue)
	}

	c.logger.Info("Starting queue consumer", slog.String("queue", queue))
	for d := range deliveries {
		c.handle(ctx, d)
	}

	c.mu.Lock()
	stopping := c.stopping
	c.mu.Unlock()
	if stopping {
		return nil
	}

	return errors.Errorf("queue %s closed unexpectedly", queue)
}

// handle acks processed messages, requeues retryable failures and drops the rest.
func (c *queueConsumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.processor.Process(ctx, d.Body, stringHeaders(d))

	var ackErr error
	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case handler.IsRetryable(err):
		ackErr = d.Nack(false, true)
	default:
		ackErr = d.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Warn("Failed to acknowledge message",
			slog.String("message_id", d.MessageId),
			slog.Any("error", ackErr),
		)
	}
}

func (c *queueConsumer) stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopping = true
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}

	c.logger.Info("Shutting down queue consumer")

	return errors.WithStack(c.conn.Close())
}

// stringHeaders exposes the message headers, plus the correlation ID as the
// request ID, in the attribute form push messages use.
func stringHeaders(d amqp.Delivery) map[string]string {
	attributes := make(map[string]string, len(d.Headers)+1)
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			attributes[k] = s
		}
	}
	if _, ok := attributes["request_id"]; !ok && d.CorrelationId != "" {
		attributes["request_id"] = d.CorrelationId
	}

	return attributes
}

func providerName(cfg *config.Config) string {
	if cfg.PubSub == nil {
		return constants.PubSubProviderNoop
	}

	return cfg.PubSub.Provider
}
