package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/questx-lab/badge-minter/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "nft_minted" {
			return errors.New("unexpected topic " + m.Topic)
		}

		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newPublisher(producer)
	require.NoError(t, p.Publish(context.Background(), "nft_minted", &pubsub.Pack{Key: []byte("k"), Msg: []byte("{}")}))
	require.ErrorIs(t, p.Publish(context.Background(), "nft_minted", &pubsub.Pack{}), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Stop(context.Background()))
}

func TestConsumerGroupHandler_Retry(t *testing.T) {
	calls := 0
	h := &consumerGroupHandler{
		fn: func(context.Context, *pubsub.Pack, time.Time) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}

			return nil
		},
		maxRetries:   5,
		retryBackoff: time.Millisecond,
	}

	require.True(t, h.handle(context.Background(), &pubsub.Pack{}, time.Now()))
	require.Equal(t, 3, calls)
}

func TestConsumerGroupHandler_GiveUp(t *testing.T) {
	calls := 0
	h := &consumerGroupHandler{
		fn: func(context.Context, *pubsub.Pack, time.Time) error {
			calls++
			return errors.New("transient")
		},
		maxRetries:   2,
		retryBackoff: time.Millisecond,
	}

	require.True(t, h.handle(context.Background(), &pubsub.Pack{}, time.Now()))
	require.Equal(t, 3, calls)
}

func TestConsumerGroupHandler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &consumerGroupHandler{
		fn: func(context.Context, *pubsub.Pack, time.Time) error {
			cancel()
			return errors.New("transient")
		},
		maxRetries:   2,
		retryBackoff: time.Hour,
	}

	require.False(t, h.handle(ctx, &pubsub.Pack{}, time.Now()))
}
