package constants

// Event publisher providers accepted under pubsub.provider.
const (
	PubSubProviderNoop     = "noop"
	PubSubProviderLocal    = "local"
	PubSubProviderGoogle   = "google"
	PubSubProviderRabbitMQ = "rabbitmq"
)
