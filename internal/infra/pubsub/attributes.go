package pubsub

import "github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

// eventAttributes are the message attributes consumers filter and trace on.
func eventAttributes(event *entity.CheckoutEvent) map[string]string {
	attributes := map[string]string{
		"event_type":  "checkout.completed",
		"checkout_id": event.CheckoutID.String(),
		"user_id":     event.UserID.String(),
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
