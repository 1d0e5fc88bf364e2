package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/darts-backend/internal/config"
	"github.com/rocketscienceinc/darts-backend/internal/events"
	"github.com/rocketscienceinc/darts-backend/internal/repository"
	"github.com/rocketscienceinc/darts-backend/internal/repository/storage"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
	"github.com/rocketscienceinc/darts-backend/transport/rest"
	"github.com/rocketscienceinc/darts-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if conf.Redis.Host == "" || conf.Redis.Port == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	publisher, err := events.Connect(logger, conf.NATS.URL)
	if err != nil {
		return fmt.Errorf("could not connect to event broker: %w", err)
	}

	defer publisher.Close()

	playerRepo := repository.NewPlayerRepository(redisClient, conf.Redis.MatchTTL)
	matchRepo := repository.NewMatchRepository(redisClient, conf.Redis.MatchTTL)
	matchManager := usecase.NewMatchManager(logger, playerRepo, matchRepo, publisher)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, matchManager).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := websocket.New(logger, matchManager).Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
