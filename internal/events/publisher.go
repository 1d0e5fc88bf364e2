// Package events fans match events out to other services over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const subjectPrefix = "darts.match."

type Publisher interface {
	Publish(ctx context.Context, matchID string, events []entity.Event) error
	Close()
}

// Subject returns the subject events of a match are published on.
func Subject(matchID string) string {
	return subjectPrefix + matchID + ".events"
}

// Message is the payload published for every event.
type Message struct {
	MatchID string       `json:"match_id"`
	Event   entity.Event `json:"event"`
	SentAt  int64        `json:"sent_at"`
}

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

type natsPublisher struct {
	logger *slog.Logger
	conn   conn
	now    func() time.Time
}

// Connect dials the NATS server at url. An empty url yields a publisher that drops everything.
func Connect(logger *slog.Logger, url string) (Publisher, error) {
	if url == "" {
		return NopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Name("darts-backend"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNATSPublisher(logger, nc), nil
}

func newNATSPublisher(logger *slog.Logger, c conn) *natsPublisher {
	return &natsPublisher{
		logger: logger.With("component", "events"),
		conn:   c,
		now:    time.Now,
	}
}

func (that *natsPublisher) Publish(ctx context.Context, matchID string, events []entity.Event) error {
	subject := Subject(matchID)

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(Message{
			MatchID: matchID,
			Event:   event,
			SentAt:  that.now().UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		if err = that.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("failed to publish event on %s: %w", subject, err)
		}
	}

	that.logger.Debug("published match events", "subject", subject, "count", len(events))

	return nil
}

func (that *natsPublisher) Close() {
	that.conn.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []entity.Event) error { return nil }

func (NopPublisher) Close() {}
