package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=publisher.go -destination=mocks/mock.go

// Publisher announces committed lending and review changes.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

func New(cfg kafka.Config, breaker circuit_breaker.Config, log *zap.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		log.Info("kafka is not configured, lending events are dropped")
		return Nop{}, nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "kafka.NewProducer")
	}
	return NewKafkaPublisher(producer, cfg.Topic, circuit_breaker.New(breaker), log), nil
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker, log *zap.Logger) Publisher {
	if topic == "" {
		topic = kafka.LendingTopic
	}
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
		log:      log.Named("events"),
	}
}

func (p *kafkaPublisher) Publish(_ context.Context, event kafka.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Type),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		p.log.Debug("event published",
			zap.String("type", string(event.Type)),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type Nop struct{}

func (Nop) Publish(context.Context, kafka.Event) error { return nil }
func (Nop) Close() error                               { return nil }
