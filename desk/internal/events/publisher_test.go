package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/events"
	"github.com/Astemirdum/lending-desk/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	event := kafka.NewEvent(kafka.EventCheckIn, 3, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	event.BookID = 1
	event.LoanID = 9

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got kafka.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != kafka.EventCheckIn || got.BookID != 1 || got.LoanID != 9 || got.UserID != 3 {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	p := events.NewKafkaPublisher(producer, "", circuit_breaker.New(circuit_breaker.Config{Window: 2, Timeout: time.Minute, FailureRatio: 1}), zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_BreakerOpens(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	errBroker := errors.New("leader not available")
	producer.ExpectSendMessageAndFail(errBroker)

	cb := circuit_breaker.New(circuit_breaker.Config{Window: 2, Timeout: time.Hour, FailureRatio: 0.5, RecoveryCalls: 1})
	p := events.NewKafkaPublisher(producer, "lending-events", cb, zap.NewNop())

	event := kafka.NewEvent(kafka.EventCheckOut, 3, time.Now())
	require.ErrorIs(t, p.Publish(context.Background(), event), errBroker)
	require.Equal(t, circuit_breaker.Open, cb.State())

	// broker is not called again while open
	require.ErrorIs(t, p.Publish(context.Background(), event), circuit_breaker.ErrOpen)
	require.NoError(t, p.Close())
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()
	p, err := events.New(kafka.Config{}, circuit_breaker.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, events.Nop{}, p)
	require.NoError(t, p.Publish(context.Background(), kafka.Event{}))
}
