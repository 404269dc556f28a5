package repository

// MessageBus publishes encoded ledger events to a topic.
type MessageBus interface {
	Publish(topic string, data []byte) error
}
