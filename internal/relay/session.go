package relay

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/novahotels/concierge/domain/entities"
)

// OutputMode selects the agent's output modality for a session.
type OutputMode string

const (
	OutputModeVoice OutputMode = "voice"
	OutputModeText  OutputMode = "text"
)

// ParseOutputMode maps the query parameter to a modality; anything but an
// explicit "text" means voice.
func ParseOutputMode(raw string) OutputMode {
	if raw == string(OutputModeText) {
		return OutputModeText
	}
	return OutputModeVoice
}

// State is a realtime session's lifecycle state.
type State string

const (
	StateConnecting         State = "connecting"
	StateRejected           State = "rejected"
	StateAuthorized         State = "authorized"
	StateUpstreamConnecting State = "upstream_connecting"
	StateActive             State = "active"
	StateClosing            State = "closing"
	StateClosed             State = "closed"
)

// validTransitions encodes the lifecycle:
// Connecting → Authorized → UpstreamConnecting → Active → Closing → Closed,
// with Rejected terminal out of the pre-active states.
var validTransitions = map[State][]State{
	StateConnecting:         {StateRejected, StateAuthorized},
	StateAuthorized:         {StateRejected, StateUpstreamConnecting},
	StateUpstreamConnecting: {StateRejected, StateActive},
	StateActive:             {StateClosing},
	StateClosing:            {StateClosed},
}

// Session is the per-connection state of one guest's realtime session. It
// is owned exclusively by that connection's goroutines and never shared
// across sessions, so its mutable fields need no locking: the dedup set,
// pending-reply list, and welcome flag are touched only from the upstream
// read loop, and the state only from the connection's lifecycle path.
type Session struct {
	ID         string
	GuestID    string
	GuestName  string
	RoomNumber string
	OutputMode OutputMode

	state State

	welcomeTriggered bool
	dispatchedCalls  map[string]struct{}

	// Replies move Pending → ShowRequested (ids taken synchronously) →
	// Shown (persisted). TakePendingReplyIDs clears the list before any
	// write so a second response.done cannot re-mark.
	pendingReplies  []*entities.Request
	pendingReplyIDs []string
}

// NewSession creates a session in the Connecting state for a guest
// connection that has not been authorized yet.
func NewSession(outputMode OutputMode) *Session {
	return &Session{
		ID:              uuid.NewString(),
		OutputMode:      outputMode,
		state:           StateConnecting,
		dispatchedCalls: make(map[string]struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Transition moves the session to the given state, enforcing the lifecycle.
func (s *Session) Transition(to State) error {
	for _, allowed := range validTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid session transition %s -> %s", s.state, to)
}

// Authorize captures the guest context and moves to Authorized.
func (s *Session) Authorize(guest *entities.Guest, pendingReplies []*entities.Request) error {
	if err := s.Transition(StateAuthorized); err != nil {
		return err
	}
	s.GuestID = guest.ID
	s.GuestName = guest.FirstName
	s.RoomNumber = guest.RoomNumber
	s.pendingReplies = pendingReplies
	s.pendingReplyIDs = make([]string, 0, len(pendingReplies))
	for _, req := range pendingReplies {
		s.pendingReplyIDs = append(s.pendingReplyIDs, req.ID)
	}
	return nil
}

// PendingReplies returns the manager replies awaiting delivery this
// session.
func (s *Session) PendingReplies() []*entities.Request {
	return s.pendingReplies
}

// TriggerWelcome reports whether the session-start injection should run:
// true exactly once, and only when there is something to deliver (a
// configured welcome or pending replies). A recurring session.updated
// event is a no-op after the first.
func (s *Session) TriggerWelcome(welcomeConfigured bool) bool {
	if s.welcomeTriggered {
		return false
	}
	if !welcomeConfigured && len(s.pendingReplies) == 0 {
		return false
	}
	s.welcomeTriggered = true
	return true
}

// MarkDispatched records a tool call id and reports whether this is the
// first time it was seen. Call ids arriving through both response.done and
// function_call_arguments.done execute once.
func (s *Session) MarkDispatched(callID string) bool {
	if _, seen := s.dispatchedCalls[callID]; seen {
		return false
	}
	s.dispatchedCalls[callID] = struct{}{}
	return true
}

// TakePendingReplyIDs returns the reply ids awaiting a shown-mark and
// clears the list synchronously, so the caller can persist the mark
// without a second completion event racing it.
func (s *Session) TakePendingReplyIDs() []string {
	ids := s.pendingReplyIDs
	s.pendingReplyIDs = nil
	return ids
}
