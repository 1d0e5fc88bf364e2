package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, console func(in *strings.Reader, out *bytes.Buffer) *Console, input string) string {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, console(strings.NewReader(input), &out).Run(context.Background()))

	return out.String()
}

func named(in *strings.Reader, out *bytes.Buffer) *Console {
	return New(in, out).WithNames("A", "B")
}

func prompted(in *strings.Reader, out *bytes.Buffer) *Console {
	return New(in, out)
}

func TestConsole_Run(t *testing.T) {
	t.Run("Plays a match to the win", func(t *testing.T) {
		// Given: two named players
		// When: the first player checks out with 40, 40, 21
		out := run(t, prompted, "Ann\nBob\n40\n40\n21\nquit\n")

		// Then: the win is announced and the final score shown
		assert.Contains(t, out, "Enter player names\nPlayer 1: Player 2: Game started: Ann vs Bob\n")
		assert.Contains(t, out, "Ann dart 3: 21 -> remaining 0\nAnn WINS!\nThe winner is Ann!\nAnn: 0    Bob: 101\n")
	})

	t.Run("Blank names fall back to defaults", func(t *testing.T) {
		out := run(t, prompted, "  \n\nquit\n")

		assert.Contains(t, out, "Game started: Player 1 vs Player 2\n")
	})

	t.Run("Warns about invalid throws", func(t *testing.T) {
		out := run(t, named, "abc\n\n70\n20\n")

		assert.Contains(t, out, "Invalid input: Throw must be a whole number.\n")
		assert.Contains(t, out, "Invalid input: Enter a throw score.\n")
		assert.Contains(t, out, "Invalid input: Throw must be between 0 and 60.\n")
		assert.Contains(t, out, "A dart 1: 20 -> remaining 81\n")
	})

	t.Run("Bust reverts and passes the turn", func(t *testing.T) {
		out := run(t, named, "30\n30\n50\n")

		assert.Contains(t, out, "A dart 3: 50 -> remaining -9\nBUST! Score reverts to start of turn.\n\nA: 101    B: 101\nTurn: B\nDart: 1/6\n")
	})

	t.Run("New starts over with new names", func(t *testing.T) {
		out := run(t, named, "10\nnew\nC\nD\n")

		assert.Contains(t, out, "Game started: C vs D\nC: 101    D: 101\nTurn: C\n")
	})

	t.Run("Throws after the win are ignored", func(t *testing.T) {
		out := run(t, named, "60\n41\n5\nquit\n")

		assert.Contains(t, out, fmt.Sprintf("A already won. Type %q or %q.\n", "new", "quit"))
		assert.NotContains(t, out, "A dart 3")
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := New(strings.NewReader("20\n"), &bytes.Buffer{}).WithNames("A", "B").Run(ctx)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestStatus(t *testing.T) {
	s := entity.Snapshot{
		Players:        [2]string{"A", "B"},
		Scores:         [2]int{101, 62},
		CurrentPlayer:  1,
		TurnStartScore: 62,
		TurnTotal:      25,
		DartNumber:     3,
		DartsPerTurn:   6,
	}

	assert.Equal(t, "A: 101    B: 62", Scoreboard(s))
	assert.Equal(t, "Turn: B\nDart: 3/6\nStarting score this turn: 62\nTurn total so far: 25\n", Status(s))
}

func TestNotice(t *testing.T) {
	assert.Equal(t, "Enter a throw score.", Notice(apperror.ErrEmptyThrow, 60))
	assert.Equal(t, "Throw must be a whole number.", Notice(fmt.Errorf("%w: %q", apperror.ErrNotWholeNumber, "x"), 60))
	assert.Equal(t, "Throw must be between 0 and 60.", Notice(fmt.Errorf("%w: 61", apperror.ErrOutOfRange), 60))
}
