// Command matchbookd runs the matching engine behind an HTTP + websocket
// surface. Bootstrap follows the teacher repo's cmd/main.go idiom:
// signal.NotifyContext for graceful shutdown and a tomb.Tomb to supervise
// the long-running goroutines.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/fanout"
	"matchbook/internal/matching"
	"matchbook/internal/submit"
	"matchbook/internal/transport"
)

const defaultAddr = ":8080"

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("MATCHBOOK_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	registry := matching.NewRegistry()
	hub := fanout.NewHub()
	svc := submit.NewService(registry, hub)
	router := transport.NewRouter(svc, hub)

	srv := &http.Server{Addr: addr, Handler: router}

	t, ctx := tomb.WithContext(ctx)

	t.Go(func() error {
		hub.Start(t)
		return nil
	})

	t.Go(func() error {
		log.Info().Str("addr", addr).Msg("matchbookd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	t.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("matchbookd shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := t.Wait(); err != nil {
		log.Fatal().Err(err).Msg("matchbookd exited with error")
	}
}
