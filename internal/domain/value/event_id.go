package value

import (
	"fmt"
	"math/rand"
	"strings"
)

// EventID identifies one auction event. IDs are generated on the control
// device: 8 base36 characters, enough to make collisions between independent
// displays implausible without coordination.
type EventID string

const (
	eventIDLen      = 8
	eventIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

func NewEventID() EventID {
	var b strings.Builder
	b.Grow(eventIDLen)

	for i := 0; i < eventIDLen; i++ {
		b.WriteByte(eventIDAlphabet[rand.Intn(len(eventIDAlphabet))])
	}

	return EventID(b.String())
}

func ParseEventID(s string) (EventID, error) {
	if len(s) != eventIDLen {
		return "", fmt.Errorf("event id must be %d characters, got %d", eventIDLen, len(s))
	}

	for _, r := range s {
		if !strings.ContainsRune(eventIDAlphabet, r) {
			return "", fmt.Errorf("event id contains invalid character %q", r)
		}
	}

	return EventID(s), nil
}

func (id EventID) String() string {
	return string(id)
}
