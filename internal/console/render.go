// Package console plays a hotseat match on a terminal.
package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

// Scoreboard renders both players and their scores on one line.
func Scoreboard(s entity.Snapshot) string {
	return fmt.Sprintf("%s: %d    %s: %d", s.Players[0], s.Scores[0], s.Players[1], s.Scores[1])
}

// Status renders the turn block shown under the scoreboard.
func Status(s entity.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Turn: %s\n", s.CurrentName())
	fmt.Fprintf(&b, "Dart: %d/%d\n", s.DartNumber, s.DartsPerTurn)
	fmt.Fprintf(&b, "Starting score this turn: %d\n", s.TurnStartScore)
	fmt.Fprintf(&b, "Turn total so far: %d\n", s.TurnTotal)

	return b.String()
}

// Notice turns a rejected throw into the warning shown to the user.
func Notice(err error, maxThrow int) string {
	switch {
	case errors.Is(err, apperror.ErrEmptyThrow):
		return "Enter a throw score."
	case errors.Is(err, apperror.ErrNotWholeNumber):
		return "Throw must be a whole number."
	case errors.Is(err, apperror.ErrOutOfRange):
		return fmt.Sprintf("Throw must be between 0 and %d.", maxThrow)
	default:
		return err.Error()
	}
}

// logLine renders an event the way it appears in the match log. Turn changes
// are followed by an empty line.
func logLine(event entity.Event) string {
	switch event.Kind {
	case entity.EventBust, entity.EventTurnEnd:
		return event.Message + "\n\n"
	default:
		return event.Message + "\n"
	}
}
