package repositories

import (
	"context"

	"github.com/novahotels/concierge/domain/entities"
)

// GuestDirectory provides lookup and lifecycle operations for guests and
// rooms. The guest's ID is the opaque token presented by the guest app.
type GuestDirectory interface {
	// GetByToken resolves a guest token to the guest record, or nil when
	// no guest matches.
	GetByToken(ctx context.Context, token string) (*entities.Guest, error)
	// FindByRoomAndName locates a guest by room number and name, used by
	// app activation.
	FindByRoomAndName(ctx context.Context, roomNumber, firstName, lastName string) (*entities.Guest, error)
	List(ctx context.Context) ([]*entities.Guest, error)
	Create(ctx context.Context, guest *entities.Guest) error
	Update(ctx context.Context, guest *entities.Guest) error
}

// RequestRepository persists guest requests and complaints, including
// manager replies and their shown state.
type RequestRepository interface {
	Create(ctx context.Context, request *entities.Request) error
	// List returns requests newest-first, optionally filtered by type.
	List(ctx context.Context, reqType entities.RequestType) ([]*entities.Request, error)
	// SetReply attaches a manager reply to a request and resets its shown
	// flag so the guest sees it on their next session.
	SetReply(ctx context.Context, requestID, reply string) error
	// PendingReplies returns this guest's requests that carry a reply the
	// guest has not been shown yet.
	PendingReplies(ctx context.Context, guestID string) ([]*entities.Request, error)
	// MarkRepliesShown flags the given requests' replies as delivered.
	MarkRepliesShown(ctx context.Context, requestIDs []string) error
}

// FeedbackRepository persists guest feedback records.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
	List(ctx context.Context) ([]*entities.Feedback, error)
}

// RoomUnlockStore tracks which rooms have registered a key card tap.
// Concierge sessions are gated on this state.
type RoomUnlockStore interface {
	IsUnlocked(ctx context.Context, roomNumber string) (bool, error)
	Unlock(ctx context.Context, roomNumber, cardUID string) error
	Lock(ctx context.Context, roomNumber string) error
	// ResetAll clears all unlock state; run at boot so stale taps from a
	// previous process do not gate sessions open.
	ResetAll(ctx context.Context) error
}
