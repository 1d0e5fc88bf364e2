// Package darts implements the turn and scoring rules of a 101-down leg.
package darts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

// Rules are the fixed parameters of a leg.
type Rules struct {
	StartingScore int
	DartsPerTurn  int
	MaxThrow      int
}

// DefaultRules are the house rules: 101 down, up to six darts a turn, 60 per dart.
var DefaultRules = Rules{
	StartingScore: 101,
	DartsPerTurn:  6,
	MaxThrow:      60,
}

// Result is what a single recorded throw produced.
type Result struct {
	Snapshot entity.Snapshot `json:"snapshot"`
	Events   []entity.Event  `json:"events"`
}

// Engine owns one match and is the only thing that mutates it.
// It is not safe for concurrent use; each match needs its own Engine.
type Engine struct {
	rules Rules
	match entity.Match
}

// New returns an engine with a fresh match between the default player names.
func New() *Engine {
	engine := &Engine{rules: DefaultRules}
	engine.StartMatch("", "")

	return engine
}

// Restore returns an engine continuing a previously exported match.
func Restore(match *entity.Match) *Engine {
	return &Engine{
		rules: DefaultRules,
		match: *match,
	}
}

// StartMatch resets the engine to a new match. Blank names fall back to
// "Player 1" and "Player 2".
func (that *Engine) StartMatch(name1, name2 string) entity.Event {
	p1 := defaultName(name1, entity.DefaultPlayerOne)
	p2 := defaultName(name2, entity.DefaultPlayerTwo)

	that.match = entity.Match{
		ID:             that.match.ID,
		Players:        [2]string{p1, p2},
		Scores:         [2]int{that.rules.StartingScore, that.rules.StartingScore},
		CurrentPlayer:  0,
		TurnStartScore: that.rules.StartingScore,
		TurnTotal:      0,
		DartNumber:     1,
		DartsPerTurn:   that.rules.DartsPerTurn,
		MaxThrow:       that.rules.MaxThrow,
		Seats:          that.match.Seats,
	}

	return entity.Event{
		Kind:    entity.EventStarted,
		Message: fmt.Sprintf("Game started: %s vs %s", p1, p2),
	}
}

// RecordThrow applies one dart to the current turn. Invalid input is rejected
// before anything changes. Throws after the match is won are ignored.
func (that *Engine) RecordThrow(raw string) (Result, error) {
	if that.match.IsFinished() {
		return Result{Snapshot: that.Snapshot()}, nil
	}

	value, err := that.ParseThrow(raw)
	if err != nil {
		return Result{}, err
	}

	m := &that.match
	p := m.CurrentPlayer
	name := m.Players[p]

	m.TurnTotal += value
	remaining := m.TurnStartScore - m.TurnTotal

	events := []entity.Event{{
		Kind:      entity.EventThrow,
		Player:    name,
		Dart:      m.DartNumber,
		Value:     value,
		Remaining: remaining,
		Message:   fmt.Sprintf("%s dart %d: %d -> remaining %d", name, m.DartNumber, value, remaining),
	}}

	switch {
	case remaining < 0:
		// the stored score still holds the turn start score
		events = append(events, entity.Event{
			Kind:      entity.EventBust,
			Player:    name,
			Remaining: m.Scores[p],
			Message:   "BUST! Score reverts to start of turn.",
		})
		that.rollover()
	case remaining == 0:
		m.Scores[p] = 0
		m.Winner = name
		events = append(events, entity.Event{
			Kind:    entity.EventWin,
			Player:  name,
			Message: name + " WINS!",
		})
	case m.DartNumber < m.DartsPerTurn:
		m.DartNumber++
	default:
		m.Scores[p] = remaining
		events = append(events, entity.Event{
			Kind:      entity.EventTurnEnd,
			Player:    name,
			Remaining: remaining,
			Message:   fmt.Sprintf("End of turn. %s now needs %d.", name, remaining),
		})
		that.rollover()
	}

	return Result{
		Snapshot: that.Snapshot(),
		Events:   events,
	}, nil
}

// ParseThrow validates raw user text as a single dart score.
func (that *Engine) ParseThrow(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperror.ErrEmptyThrow
	}

	value, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s is not between 0 and %d", apperror.ErrOutOfRange, raw, that.rules.MaxThrow)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: %q", apperror.ErrNotWholeNumber, raw)
	}

	if value < 0 || value > that.rules.MaxThrow {
		return 0, fmt.Errorf("%w: %d is not between 0 and %d", apperror.ErrOutOfRange, value, that.rules.MaxThrow)
	}

	return value, nil
}

// Snapshot returns a read-only view of the current match.
func (that *Engine) Snapshot() entity.Snapshot {
	return that.match.Snapshot()
}

// Match returns a copy of the match for storage.
func (that *Engine) Match() *entity.Match {
	match := that.match
	return &match
}

// rollover passes the turn to the other player.
func (that *Engine) rollover() {
	m := &that.match
	m.CurrentPlayer = 1 - m.CurrentPlayer
	m.TurnStartScore = m.Scores[m.CurrentPlayer]
	m.TurnTotal = 0
	m.DartNumber = 1
}

func defaultName(name, fallback string) string {
	if name = strings.TrimSpace(name); name == "" {
		return fallback
	}
	return name
}
