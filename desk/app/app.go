package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/lending-desk/desk/config"
	"github.com/Astemirdum/lending-desk/desk/internal/events"
	"github.com/Astemirdum/lending-desk/desk/internal/handler"
	"github.com/Astemirdum/lending-desk/desk/internal/imagestore"
	"github.com/Astemirdum/lending-desk/desk/internal/repository"
	"github.com/Astemirdum/lending-desk/desk/internal/server"
	"github.com/Astemirdum/lending-desk/desk/internal/service"
	"github.com/Astemirdum/lending-desk/desk/migrations"
	"github.com/Astemirdum/lending-desk/pkg/auth"
	"github.com/Astemirdum/lending-desk/pkg/logger"
	"github.com/Astemirdum/lending-desk/pkg/postgres"
)

const shutdownTimeout = 5 * time.Second

// Deps are the long-lived resources behind the desk service.
type Deps struct {
	Service   *service.Service
	Images    *imagestore.Store
	closeFunc func()
}

func (d *Deps) Close() {
	d.closeFunc()
}

// Build connects storage and the event publisher and assembles the service.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Deps, error) {
	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return nil, errors.Wrap(err, "db init")
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "repository")
	}
	images, err := imagestore.New(cfg.Upload.Dir, cfg.Upload.MaxBytes, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	publisher, err := events.New(cfg.Kafka, cfg.Breaker, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	svc := service.NewService(repo, auth.NewTokenManager(cfg.Auth), images, publisher, service.Config{
		LoanPeriod: cfg.Lending.LoanPeriod,
		PublicURL:  cfg.Upload.PublicURL,
	}, log)

	return &Deps{
		Service: svc,
		Images:  images,
		closeFunc: func() {
			if err := publisher.Close(); err != nil {
				log.Warn("publisher close", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				log.Warn("db close", zap.Error(err))
			}
		},
	}, nil
}

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "desk")
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	h := handler.New(deps.Service, deps.Images, cfg.Upload.MaxBytes, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ", zap.String("addr", srv.Addr()))
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "http server")
	}
	log.Info("Graceful shutdown finished")
	return nil
}
