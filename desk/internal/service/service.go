package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/lending-desk/desk/internal/events"
	"github.com/Astemirdum/lending-desk/desk/internal/repository"
	"github.com/Astemirdum/lending-desk/pkg/auth"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

const defaultLoanPeriod = 14 * 24 * time.Hour

type ImageStore interface {
	Save(name string, content io.Reader) (string, error)
	Remove(name string)
}

type Config struct {
	LoanPeriod time.Duration
	PublicURL  string
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
}

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	tokens *auth.TokenManager
	images ImageStore
	events events.Publisher
	cfg    Config
	now    func() time.Time

	// compared against on unknown usernames so both login failures cost the same
	dummyHash []byte
}

func NewService(
	repo repository.Repository,
	tokens *auth.TokenManager,
	images ImageStore,
	publisher events.Publisher,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.LoanPeriod <= 0 {
		cfg.LoanPeriod = defaultLoanPeriod
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		log:    log.Named("service"),
		repo:   repo,
		tokens: tokens,
		images: images,
		events: publisher,
		cfg:    cfg,
		now:    time.Now,
	}
	if hash, err := bcrypt.GenerateFromPassword([]byte("lending-desk"), cfg.HashCost); err == nil {
		s.dummyHash = hash
	}
	return s
}

// WithClock replaces the time source used for due dates, completion dates and review timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) publish(ctx context.Context, event kafka.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event",
			zap.String("type", string(event.Type)),
			zap.Int64("book_id", event.BookID),
			zap.Error(err))
	}
}
