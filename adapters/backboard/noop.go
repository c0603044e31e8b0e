package backboard

import (
	"context"

	"github.com/novahotels/concierge/domain/repositories"
)

// Noop is a MemoryStore that remembers nothing. Used when no Backboard
// API key is configured so sessions still work, just without recall.
type Noop struct{}

var _ repositories.MemoryStore = Noop{}

func (Noop) Add(ctx context.Context, guestID, roomNumber, content string) error {
	return nil
}

func (Noop) ForGuest(ctx context.Context, guestID string) ([]string, error) {
	return nil, nil
}

func (Noop) ForRoom(ctx context.Context, roomNumber string) ([]repositories.RoomMemory, error) {
	return nil, nil
}

func (Noop) All(ctx context.Context) ([]repositories.RoomMemory, error) {
	return nil, nil
}
