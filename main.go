package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/internal/config"
	"github.com/robalobadob/numble/internal/database"
	"github.com/robalobadob/numble/internal/httpserver"
	"github.com/robalobadob/numble/internal/leaderboard"
	"github.com/robalobadob/numble/internal/primes"
	"github.com/robalobadob/numble/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.SecretGenerated {
		log.Warn().Msg("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		board leaderboard.Store = leaderboard.NewMemory()
		cache primes.Cache
	)
	if cfg.DatabaseURL != "" {
		db, dialect, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db, dialect); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		sqlStore := leaderboard.NewSQL(db, dialect)
		board, cache = sqlStore, sqlStore
	} else {
		log.Warn().Msg("DATABASE_URL not set; leaderboard is in-memory only")
	}

	catalog, err := primes.Load(ctx, cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load prime catalog")
	}

	srv, err := httpserver.New(httpserver.Deps{
		Config:      cfg,
		Catalog:     catalog,
		Sessions:    store.NewMemoryStore(),
		Leaderboard: board,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}
	go srv.RunJanitor(ctx, 5*time.Minute)

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("mode", string(cfg.Mode)).
		Int("primes", catalog.Len()).
		Msg("starting numble")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
