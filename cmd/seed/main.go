package main

import (
	"context"
	"flag"
	"io"
	stdLog "log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/app"
	"github.com/Astemirdum/lending-desk/desk/config"
	"github.com/Astemirdum/lending-desk/pkg/logger"
)

func main() {
	booksPath := flag.String("books", "books.json", "JSON array of books to load into an empty catalog; empty to skip")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig()
	log := logger.NewLogger(cfg.Log, "seed")
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("build", zap.Error(err))
	}
	defer deps.Close()

	var books io.Reader
	if *booksPath != "" {
		f, err := os.Open(*booksPath)
		switch {
		case os.IsNotExist(err):
			log.Warn("books file not found, skipping books", zap.String("path", *booksPath))
		case err != nil:
			log.Fatal("open books", zap.Error(err))
		default:
			defer f.Close()
			books = f
		}
	}

	if err := app.Seed(ctx, deps.Service, books, log); err != nil {
		log.Error("seed", zap.Error(err))
		return
	}
	log.Info("database seeding complete")
}
