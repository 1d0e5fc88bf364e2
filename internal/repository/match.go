package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const maxUpdateRetries = 10

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrUpdateConflict = errors.New("match was modified concurrently")
)

type MatchRepository interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error

	// Update loads the match, applies fn and stores the result atomically.
	// Nothing is written if fn returns an error.
	Update(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error)

	AppendLog(ctx context.Context, id string, events ...entity.Event) error
	// ResetLog replaces the whole log with events.
	ResetLog(ctx context.Context, id string, events ...entity.Event) error
	GetLog(ctx context.Context, id string) ([]entity.Event, error)
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMatchRepository stores matches under match:<id>. A zero ttl keeps keys forever.
func NewMatchRepository(client *redis.Client, ttl time.Duration) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
	}
}

func matchKey(id string) string {
	return "match:" + id
}

func logKey(id string) string {
	return "match:" + id + ":log"
}

func (that *dbMatch) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	if err = that.client.Set(ctx, matchKey(match.ID), matchJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	return getMatch(ctx, that.client, id)
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, matchKey(id), logKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete match by ID: %w", err)
	}

	if deleted == 0 {
		return ErrMatchNotFound
	}

	return nil
}

func (that *dbMatch) Update(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error) {
	key := matchKey(id)

	var updated *entity.Match
	txf := func(tx *redis.Tx) error {
		match, err := getMatch(ctx, tx, id)
		if err != nil {
			return err
		}

		if err = fn(match); err != nil {
			return err
		}

		matchJSON, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("could not marshal match: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, matchJSON, that.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		updated = match

		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return updated, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUpdateConflict, id)
}

func (that *dbMatch) AppendLog(ctx context.Context, id string, events ...entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	values, err := marshalEvents(events)
	if err != nil {
		return err
	}

	key := logKey(id)
	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append match log: %w", err)
	}

	return nil
}

func (that *dbMatch) ResetLog(ctx context.Context, id string, events ...entity.Event) error {
	values, err := marshalEvents(events)
	if err != nil {
		return err
	}

	key := logKey(id)
	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) == 0 {
			return nil
		}

		pipe.RPush(ctx, key, values...)
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset match log: %w", err)
	}

	return nil
}

func marshalEvents(events []entity.Event) ([]any, error) {
	values := make([]any, 0, len(events))
	for _, event := range events {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("could not marshal event: %w", err)
		}
		values = append(values, eventJSON)
	}

	return values, nil
}

func (that *dbMatch) GetLog(ctx context.Context, id string) ([]entity.Event, error) {
	response, err := that.client.LRange(ctx, logKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get match log: %w", err)
	}

	events := make([]entity.Event, 0, len(response))
	for _, line := range response {
		var event entity.Event
		if err = json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getMatch(ctx context.Context, client getter, id string) (*entity.Match, error) {
	response, err := client.Get(ctx, matchKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var existingMatch entity.Match
	if err = json.Unmarshal([]byte(response), &existingMatch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}
