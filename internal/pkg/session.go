package pkg

import "github.com/google/uuid"

// NewSessionID returns a fresh transport handle for a connection.
func NewSessionID() string {
	return uuid.NewString()
}
