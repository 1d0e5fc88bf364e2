package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyThrow     = fmt.Errorf("%w: enter a throw score", ErrInvalidInput)
	ErrNotWholeNumber = fmt.Errorf("%w: throw must be a whole number", ErrInvalidInput)
	ErrOutOfRange     = fmt.Errorf("%w: throw is out of range", ErrInvalidInput)
)

var (
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrMatchFull     = errors.New("match already has two players")
	ErrNoActiveMatch = errors.New("no active match")
)

var public = []error{
	ErrEmptyThrow,
	ErrNotWholeNumber,
	ErrOutOfRange,
	ErrNotYourTurn,
	ErrMatchFull,
	ErrNoActiveMatch,
}

// Public returns a message safe to show to clients when err wraps one of the
// sentinels above.
func Public(err error) (string, bool) {
	for _, target := range public {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}

	return "", false
}
