package repositories

import "context"

// RoomMemory is a memory entry attributed to a past or current occupant of
// a room.
type RoomMemory struct {
	GuestID string `json:"guest_id"`
	Content string `json:"content"`
}

// MemoryStore is the long-term memory service. Entries are free-text facts
// scoped to a (guest, room) pair. Writes are best-effort from the caller's
// point of view: memory is an enhancement, not a correctness requirement.
type MemoryStore interface {
	// Add appends a memory entry for the guest's current stay.
	Add(ctx context.Context, guestID, roomNumber, content string) error
	// ForGuest returns this guest's memories, newest first.
	ForGuest(ctx context.Context, guestID string) ([]string, error)
	// ForRoom returns memories from all guests who stayed in the room,
	// with guest attribution.
	ForRoom(ctx context.Context, roomNumber string) ([]RoomMemory, error)
	// All returns every memory entry, for the manager dashboard feed.
	All(ctx context.Context) ([]RoomMemory, error)
}
