package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/darts"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/pkg"
	"github.com/rocketscienceinc/darts-backend/internal/repository"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
	Update(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error)
	AppendLog(ctx context.Context, id string, events ...entity.Event) error
	ResetLog(ctx context.Context, id string, events ...entity.Event) error
	GetLog(ctx context.Context, id string) ([]entity.Event, error)
}

type publisher interface {
	Publish(ctx context.Context, matchID string, events []entity.Event) error
}

// MatchState is what clients render after every call.
type MatchState struct {
	Match    *entity.Match   `json:"-"`
	Snapshot entity.Snapshot `json:"snapshot"`
	Events   []entity.Event  `json:"events,omitempty"`
	Log      []entity.Event  `json:"log,omitempty"`
}

// MatchManager hosts matches for remote clients. It keeps no match state in
// memory; every call loads the match, runs the engine once and stores it again.
type MatchManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	matchRepo  matchRepo
	publisher  publisher
}

func NewMatchManager(logger *slog.Logger, playerRepo playerRepo, matchRepo matchRepo, publisher publisher) *MatchManager {
	return &MatchManager{
		logger: logger.With("component", "match_manager"),

		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		publisher:  publisher,
	}
}

// GetOrCreatePlayer returns the session for id, creating one when id is empty or unknown.
func (that *MatchManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		id = pkg.GenerateNewSessionID()
	} else {
		player, err := that.playerRepo.GetByID(ctx, id)
		if err == nil {
			return player, nil
		}

		if !errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, fmt.Errorf("failed to get player by id: %w", err)
		}
	}

	player := &entity.Player{ID: id}
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// StartMatch creates a match hosted by playerID. Until someone joins, the host
// scores for both players.
func (that *MatchManager) StartMatch(ctx context.Context, playerID, name1, name2 string) (*MatchState, error) {
	log := that.logger.With("method", "StartMatch", "playerID", playerID)

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.InMatch() {
		that.endMatch(ctx, player.MatchID)
	}

	engine := darts.Restore(&entity.Match{
		ID:    pkg.GenerateMatchID(),
		Seats: [2]string{player.ID, ""},
	})
	started := engine.StartMatch(name1, name2)
	match := engine.Match()

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	player.MatchID = match.ID
	player.Seat = 0
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	events := []entity.Event{started}
	that.record(ctx, match.ID, events)

	log.Info("match started", "matchID", match.ID)

	return &MatchState{
		Match:    match,
		Snapshot: match.Snapshot(),
		Events:   events,
		Log:      events,
	}, nil
}

// JoinMatch seats playerID as the second player of matchID.
func (that *MatchManager) JoinMatch(ctx context.Context, matchID, playerID string) (*MatchState, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.InMatch() && player.MatchID != matchID {
		that.endMatch(ctx, player.MatchID)
	}

	match, err := that.matchRepo.Update(ctx, matchID, func(match *entity.Match) error {
		if match.SeatOf(playerID) >= 0 {
			return nil
		}

		if !match.IsHotseat() {
			return fmt.Errorf("%w: match id %s", apperror.ErrMatchFull, matchID)
		}

		match.Seats[1] = playerID

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join match: %w", err)
	}

	player.MatchID = match.ID
	player.Seat = match.SeatOf(playerID)
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	return that.state(ctx, match)
}

// RecordThrow scores one dart for the player on turn. When both seats are taken
// only the seat owning the current turn may throw.
func (that *MatchManager) RecordThrow(ctx context.Context, playerID, raw string) (*MatchState, error) {
	log := that.logger.With("method", "RecordThrow", "playerID", playerID)

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if !player.InMatch() {
		return nil, apperror.ErrNoActiveMatch
	}

	var result darts.Result
	match, err := that.matchRepo.Update(ctx, player.MatchID, func(match *entity.Match) error {
		if err := checkTurn(match, playerID); err != nil {
			return err
		}

		engine := darts.Restore(match)

		res, err := engine.RecordThrow(raw)
		if err != nil {
			return err
		}

		*match = *engine.Match()
		result = res

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record throw: %w", err)
	}

	that.record(ctx, match.ID, result.Events)

	if match.IsFinished() && len(result.Events) > 0 {
		log.Info("match finished", "matchID", match.ID, "winner", match.Winner)
	}

	return &MatchState{
		Match:    match,
		Snapshot: result.Snapshot,
		Events:   result.Events,
	}, nil
}

// NewGame restarts the player's match from 101 with the same names and seats.
func (that *MatchManager) NewGame(ctx context.Context, playerID string) (*MatchState, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if !player.InMatch() {
		return nil, apperror.ErrNoActiveMatch
	}

	var started entity.Event
	match, err := that.matchRepo.Update(ctx, player.MatchID, func(match *entity.Match) error {
		if match.SeatOf(playerID) < 0 {
			return apperror.ErrNoActiveMatch
		}

		engine := darts.Restore(match)
		started = engine.StartMatch(match.Players[0], match.Players[1])
		*match = *engine.Match()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restart match: %w", err)
	}

	// the previous game's log goes with it
	events := []entity.Event{started}
	if err = that.matchRepo.ResetLog(ctx, match.ID, events...); err != nil {
		that.logger.Error("failed to reset match log", "method", "NewGame", "matchID", match.ID, "error", err)
	}

	that.publish(ctx, match.ID, events)

	return &MatchState{
		Match:    match,
		Snapshot: match.Snapshot(),
		Events:   events,
	}, nil
}

// GetMatch returns the match with its full log.
func (that *MatchManager) GetMatch(ctx context.Context, matchID string) (*MatchState, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return that.state(ctx, match)
}

// GetPlayerMatch returns the match the player is seated in.
func (that *MatchManager) GetPlayerMatch(ctx context.Context, playerID string) (*MatchState, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if !player.InMatch() {
		return nil, apperror.ErrNoActiveMatch
	}

	return that.GetMatch(ctx, player.MatchID)
}

// LeaveMatch ends the player's match for both seats.
func (that *MatchManager) LeaveMatch(ctx context.Context, playerID string) (*MatchState, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if !player.InMatch() {
		return nil, apperror.ErrNoActiveMatch
	}

	match, err := that.matchRepo.GetByID(ctx, player.MatchID)
	if errors.Is(err, repository.ErrMatchNotFound) {
		// the match expired; free the seat anyway
		if err = that.updatePlayer(ctx, &entity.Player{ID: player.ID}); err != nil {
			return nil, err
		}

		return nil, apperror.ErrNoActiveMatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	that.endMatch(ctx, match.ID)

	return &MatchState{
		Match:    match,
		Snapshot: match.Snapshot(),
	}, nil
}

func checkTurn(match *entity.Match, playerID string) error {
	seat := match.SeatOf(playerID)
	if seat < 0 {
		return apperror.ErrNoActiveMatch
	}

	if match.IsFinished() || match.IsHotseat() {
		return nil
	}

	if seat != match.CurrentPlayer {
		return apperror.ErrNotYourTurn
	}

	return nil
}

func (that *MatchManager) state(ctx context.Context, match *entity.Match) (*MatchState, error) {
	matchLog, err := that.matchRepo.GetLog(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match log: %w", err)
	}

	return &MatchState{
		Match:    match,
		Snapshot: match.Snapshot(),
		Log:      matchLog,
	}, nil
}

// record appends events to the match log and publishes them. Failures are
// logged; the throw itself is already stored.
func (that *MatchManager) record(ctx context.Context, matchID string, events []entity.Event) {
	if len(events) == 0 {
		return
	}

	log := that.logger.With("method", "record", "matchID", matchID)

	if err := that.matchRepo.AppendLog(ctx, matchID, events...); err != nil {
		log.Error("failed to append match log", "error", err)
	}

	that.publish(ctx, matchID, events)
}

func (that *MatchManager) publish(ctx context.Context, matchID string, events []entity.Event) {
	if err := that.publisher.Publish(ctx, matchID, events); err != nil {
		that.logger.Warn("failed to publish match events", "matchID", matchID, "error", err)
	}
}

// endMatch deletes the match and frees both seats.
func (that *MatchManager) endMatch(ctx context.Context, matchID string) {
	log := that.logger.With("method", "endMatch", "matchID", matchID)

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil && !errors.Is(err, repository.ErrMatchNotFound) {
		log.Error("failed to get match", "error", err)
		return
	}

	if err = that.matchRepo.DeleteByID(ctx, matchID); err != nil && !errors.Is(err, repository.ErrMatchNotFound) {
		log.Error("failed to delete match", "error", err)
	}

	if match == nil {
		return
	}

	for _, playerID := range match.Seats {
		if playerID == "" {
			continue
		}

		player := &entity.Player{ID: playerID}
		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			log.Error("failed to update player", "player", playerID, "error", err)
		}
	}

	log.Info("match deleted")
}

func (that *MatchManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
