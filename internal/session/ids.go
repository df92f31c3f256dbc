package session

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// idAlphabet is URL and cookie safe.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// idLength gives roughly 190 bits of entropy.
const idLength = 32

func newSessionID() (string, error) {
	id, err := nanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}
