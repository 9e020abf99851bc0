package messaging

import (
	"context"
)

// Consume subscribes to channel and calls handler for every message until ctx ends or the
// broker closes the subscription. Handler errors go to onError and do not stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, handler func([]byte) error, onError func(error)) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgChan {
			if err := handler(msg); err != nil && onError != nil {
				onError(err)
			}
		}
	}()

	return nil
}
