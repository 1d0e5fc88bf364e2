package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/darts"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const (
	commandNew  = "new"
	commandQuit = "quit"
)

var errQuit = errors.New("quit")

// Console runs matches on one engine, reading input line by line.
type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	engine *darts.Engine

	// names preset for the first match; later matches prompt again
	names *[2]string
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:     bufio.NewScanner(in),
		out:    out,
		engine: darts.New(),
	}
}

// WithNames skips the name prompt for the first match.
func (that *Console) WithNames(name1, name2 string) *Console {
	that.names = &[2]string{name1, name2}
	return that
}

// Run plays matches until the input ends, the user quits or ctx is cancelled.
func (that *Console) Run(ctx context.Context) error {
	for {
		name1, name2, ok := that.setup()
		if !ok {
			return nil
		}

		started := that.engine.StartMatch(name1, name2)
		that.print(logLine(started))
		that.render(that.engine.Snapshot())

		err := that.play(ctx)
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}

func (that *Console) setup() (string, string, bool) {
	if that.names != nil {
		names := *that.names
		that.names = nil
		return names[0], names[1], true
	}

	that.print("Enter player names\n")

	name1, ok := that.readLine("Player 1: ")
	if !ok {
		return "", "", false
	}

	name2, ok := that.readLine("Player 2: ")
	if !ok {
		return "", "", false
	}

	return name1, name2, true
}

// play reads throws for the current match. It returns nil when the user asks
// for a new game.
func (that *Console) play(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok := that.readLine("Throw score: ")
		if !ok {
			return io.EOF
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case commandQuit:
			return errQuit
		case commandNew:
			return nil
		}

		result, err := that.engine.RecordThrow(line)
		if err != nil {
			that.print("Invalid input: " + Notice(err, that.engine.Snapshot().MaxThrow) + "\n")
			continue
		}

		that.report(result)
	}
}

func (that *Console) report(result darts.Result) {
	if len(result.Events) == 0 && result.Snapshot.IsTerminal() {
		that.print(fmt.Sprintf("%s already won. Type %q or %q.\n", result.Snapshot.Winner, commandNew, commandQuit))
		return
	}

	for _, event := range result.Events {
		that.print(logLine(event))

		if event.Kind == entity.EventWin {
			that.print(fmt.Sprintf("The winner is %s!\n", event.Player))
		}
	}

	that.render(result.Snapshot)
}

func (that *Console) render(s entity.Snapshot) {
	that.print(Scoreboard(s) + "\n")

	if !s.IsTerminal() {
		that.print(Status(s))
	}
}

func (that *Console) readLine(prompt string) (string, bool) {
	that.print(prompt)

	if !that.in.Scan() {
		return "", false
	}

	return that.in.Text(), true
}

func (that *Console) print(text string) {
	_, _ = io.WriteString(that.out, text)
}
