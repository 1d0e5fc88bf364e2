package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/darts-backend/internal/console"
)

func main() {
	player1 := flag.String("p1", "", "name of the first player; prompts when empty")
	player2 := flag.String("p2", "", "name of the second player; prompts when empty")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := run(*player1, *player2); err != nil {
		logger.Error("console stopped", "error", err)
		os.Exit(1)
	}
}

func run(player1, player2 string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := console.New(os.Stdin, os.Stdout)
	if player1 != "" || player2 != "" {
		c = c.WithNames(player1, player2)
	}

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
