package pkg

import "github.com/google/uuid"

// GenerateMatchID - generates a unique identifier for a match.
func GenerateMatchID() string {
	return uuid.NewString()
}

// GenerateNewSessionID - generates a new unique session id for a client.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
