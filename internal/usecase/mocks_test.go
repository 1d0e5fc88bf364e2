package usecase

import (
	"context"

	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

// mockMatchRepo runs Update functions against the match handed to
// On("Update"), committing the result only when the function succeeds.
type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	args := that.Called(ctx, match)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	args := that.Called(ctx, id)
	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

func (that *mockMatchRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockMatchRepo) Update(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error) {
	args := that.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return nil, err
	}

	stored, _ := args.Get(0).(*entity.Match)
	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}

	*stored = working
	updated := working

	return &updated, nil
}

func (that *mockMatchRepo) AppendLog(ctx context.Context, id string, events ...entity.Event) error {
	args := that.Called(ctx, id, events)
	return args.Error(0)
}

func (that *mockMatchRepo) ResetLog(ctx context.Context, id string, events ...entity.Event) error {
	args := that.Called(ctx, id, events)
	return args.Error(0)
}

func (that *mockMatchRepo) GetLog(ctx context.Context, id string) ([]entity.Event, error) {
	args := that.Called(ctx, id)
	events, _ := args.Get(0).([]entity.Event)
	return events, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (that *mockPublisher) Publish(ctx context.Context, matchID string, events []entity.Event) error {
	args := that.Called(ctx, matchID, events)
	return args.Error(0)
}
