package service

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
)

// EventPublisher defines the interface for publishing domain events to a message broker
type EventPublisher interface {
	// PublishCheckoutEvent announces a committed checkout.
	PublishCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
