package produce

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

type Produce struct {
	channel *amqp.Channel
}

// InitProduce declares the mirror queues and returns the publisher. A nil
// channel yields a nil producer, which callers treat as "publishing off".
func InitProduce(channel *amqp.Channel) *Produce {
	if channel == nil {
		return nil
	}

	for _, queue := range []string{MediaMirrorQueue, MediaDeleteQueue} {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil
		}
	}

	return &Produce{channel: channel}
}
