package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/ChatJet/internal/adapters/http"
	"github.com/dkeye/ChatJet/internal/app"
	"github.com/dkeye/ChatJet/internal/app/orch"
	"github.com/dkeye/ChatJet/internal/config"
)

func main() {
	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(config.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := orch.New(orch.Options{
		Registry:           app.NewRegistry(nil),
		Rooms:              app.NewRoomDirectory(),
		Polls:              app.NewPollEngine(),
		Policy:             app.SimplePolicy{},
		InboxSize:          cfg.InboxSize,
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
	})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = o.Run(ctx)
	}()

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("ChatJet server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				log.Info().Msg("Shutting down http server")
				return srv.Shutdown(ctx)
			},
			"dispatch": func(ctx context.Context) error {
				cancel()
				select {
				case <-loopDone:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("code", exitCode).Msg("Server exited")
	os.Exit(exitCode)
}
