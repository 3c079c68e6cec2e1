package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const LendingTopic = "lending-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"lending-events"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type EventType string

const (
	EventCheckIn       EventType = "CHECK_IN"
	EventCheckOut      EventType = "CHECK_OUT"
	EventReviewPosted  EventType = "REVIEW_POSTED"
	EventReviewLiked   EventType = "REVIEW_LIKED"
	EventReviewUnliked EventType = "REVIEW_UNLIKED"
)

type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	UserID    int64     `json:"userId"`
	BookID    int64     `json:"bookId,omitempty"`
	LoanID    int64     `json:"loanId,omitempty"`
	ReviewID  int64     `json:"reviewId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(typ EventType, userID int64, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		UserID:    userID,
		Timestamp: at.UTC(),
	}
}
