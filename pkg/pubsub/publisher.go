package pubsub

import "context"

// Pack is a message exchanged through a broker.
type Pack struct {
	Key []byte
	Msg []byte
}

type Publisher interface {
	Publish(context.Context, string, *Pack) error
}
