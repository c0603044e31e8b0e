package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Guest represents a hotel guest for one stay. The guest's ID doubles as
// the opaque guest token used by the guest app and the realtime relay.
type Guest struct {
	ID         string    `json:"id" bson:"_id"`
	FirstName  string    `json:"first_name" bson:"first_name"`
	LastName   string    `json:"last_name" bson:"last_name"`
	RoomNumber string    `json:"room_number" bson:"room_number"`
	CheckedIn  bool      `json:"checked_in" bson:"checked_in"`
	CheckedOut bool      `json:"checked_out" bson:"checked_out"`
	Archived   bool      `json:"archived" bson:"archived"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// Room represents a physical hotel room.
type Room struct {
	ID         string    `json:"id" bson:"_id"`
	RoomNumber string    `json:"room_number" bson:"room_number"`
	Floor      int       `json:"floor" bson:"floor"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// RequestType distinguishes guest requests from complaints.
type RequestType string

const (
	RequestTypeRequest   RequestType = "request"
	RequestTypeComplaint RequestType = "complaint"
)

// Request is a guest request or complaint logged by the concierge agent
// (or manually by staff). A manager may attach a reply; the reply is
// delivered to the guest at the start of their next realtime session and
// marked shown afterwards.
type Request struct {
	ID          string      `json:"id" bson:"_id"`
	GuestID     string      `json:"guest_id" bson:"guest_id"`
	RoomNumber  string      `json:"room_number" bson:"room_number"`
	Type        RequestType `json:"type" bson:"type"`
	Description string      `json:"description" bson:"description"`
	Reply       string      `json:"reply,omitempty" bson:"reply,omitempty"`
	ReplyShown  bool        `json:"reply_shown" bson:"reply_shown"`
	RepliedAt   *time.Time  `json:"replied_at,omitempty" bson:"replied_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

// FeedbackSource records which input channel the feedback came through.
type FeedbackSource string

const (
	FeedbackSourceText  FeedbackSource = "text"
	FeedbackSourceVoice FeedbackSource = "voice"
)

// Feedback is free-form guest feedback recorded via the concierge agent.
type Feedback struct {
	ID         string         `json:"id" bson:"_id"`
	GuestID    string         `json:"guest_id" bson:"guest_id"`
	RoomNumber string         `json:"room_number" bson:"room_number"`
	Content    string         `json:"content" bson:"content"`
	Source     FeedbackSource `json:"source" bson:"source"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// NewGuest creates a guest record for a stay in the given room.
func NewGuest(firstName, lastName, roomNumber string) *Guest {
	now := time.Now()
	return &Guest{
		ID:         uuid.NewString(),
		FirstName:  firstName,
		LastName:   lastName,
		RoomNumber: roomNumber,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewRequest creates a request or complaint record.
func NewRequest(guestID, roomNumber string, reqType RequestType, description string) *Request {
	return &Request{
		ID:          uuid.NewString(),
		GuestID:     guestID,
		RoomNumber:  roomNumber,
		Type:        reqType,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// NewFeedback creates a feedback record.
func NewFeedback(guestID, roomNumber, content string, source FeedbackSource) *Feedback {
	return &Feedback{
		ID:         uuid.NewString(),
		GuestID:    guestID,
		RoomNumber: roomNumber,
		Content:    content,
		Source:     source,
		CreatedAt:  time.Now(),
	}
}

func (g *Guest) Validate() error {
	if g.FirstName == "" {
		return errors.New("first name is required")
	}
	if g.LastName == "" {
		return errors.New("last name is required")
	}
	if g.RoomNumber == "" {
		return errors.New("room number is required")
	}
	return nil
}

func (r *Request) Validate() error {
	if r.GuestID == "" {
		return errors.New("guest_id is required")
	}
	if r.Type != RequestTypeRequest && r.Type != RequestTypeComplaint {
		return errors.New("invalid request type")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	return nil
}

func (f *Feedback) Validate() error {
	if f.GuestID == "" {
		return errors.New("guest_id is required")
	}
	if f.Content == "" {
		return errors.New("content is required")
	}
	if f.Source != FeedbackSourceText && f.Source != FeedbackSourceVoice {
		return errors.New("invalid feedback source")
	}
	return nil
}

// HasPendingReply reports whether a manager reply exists that the guest has
// not yet been shown.
func (r *Request) HasPendingReply() bool {
	return r.Reply != "" && !r.ReplyShown
}
