package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Shopify/sarama"
	"github.com/questx-lab/badge-minter/pkg/pubsub"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

type SubscriberOptions struct {
	// A message whose handler keeps failing is retried MaxRetries times,
	// waiting RetryBackoff then twice as long each time, then skipped.
	MaxRetries   int
	RetryBackoff time.Duration
}

type subscriber struct {
	topics  []string
	client  sarama.ConsumerGroup
	handler *consumerGroupHandler
}

func NewSubscriber(
	groupID string,
	brokerAddrs []string,
	topics []string,
	handler pubsub.SubscribeHandler,
	opts SubscriberOptions,
) (*subscriber, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokerAddrs, groupID, config)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		topics: topics,
		client: client,
		handler: &consumerGroupHandler{
			fn:           handler,
			maxRetries:   opts.MaxRetries,
			retryBackoff: opts.RetryBackoff,
		},
	}, nil
}

func (g *subscriber) Stop(ctx context.Context) error {
	return g.client.Close()
}

func (g *subscriber) Subscribe(ctx context.Context) {
	go func() {
		for {
			// Consume returns at each server-side rebalance, it must be
			// called again to get the new claims.
			if err := g.client.Consume(ctx, g.topics, g.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}

				xcontext.Logger(ctx).Errorf("Error from consumer of %v: %v", g.topics, err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}

			if ctx.Err() != nil {
				return
			}
		}
	}()
}

type consumerGroupHandler struct {
	fn           pubsub.SubscribeHandler
	maxRetries   int
	retryBackoff time.Duration
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		pack := &pubsub.Pack{Key: message.Key, Msg: message.Value}
		if !h.handle(session.Context(), pack, message.Timestamp) {
			// The session is closing, the message will be delivered again
			// to the next owner of the partition.
			return nil
		}

		session.MarkMessage(message, "")
	}

	return nil
}

// handle runs the handler until it succeeds or runs out of retries. It returns
// false if ctx is done before the message is settled.
func (h *consumerGroupHandler) handle(ctx context.Context, pack *pubsub.Pack, t time.Time) bool {
	backoff := h.retryBackoff
	for retry := 0; ; retry++ {
		err := h.fn(ctx, pack, t)
		if err == nil {
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		if retry >= h.maxRetries {
			xcontext.Logger(ctx).Errorf("Skip message %s after %d retries: %v", pack.Key, retry, err)
			return true
		}

		xcontext.Logger(ctx).Warnf("Cannot handle message %s, retry in %s: %v", pack.Key, backoff, err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		backoff *= 2
	}
}
