package api

// ErrorResponse is the standard error body for REST endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LoginRequest is the staff dashboard login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the staff session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// ActivateRequest is the guest app activation payload.
type ActivateRequest struct {
	RoomNumber string `json:"room_number"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// ActivateResponse returns the guest token the app uses from then on.
type ActivateResponse struct {
	Token      string `json:"token"`
	FirstName  string `json:"first_name"`
	RoomNumber string `json:"room_number"`
}

// MeResponse describes the guest's current standing for the guest app.
type MeResponse struct {
	GuestID          string `json:"guest_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	RoomNumber       string `json:"room_number"`
	ConciergeAllowed bool   `json:"concierge_allowed"`
}

// CreateGuestRequest registers a guest for a stay.
type CreateGuestRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	RoomNumber string `json:"room_number"`
}

// ReplyRequest attaches a manager reply to a guest request.
type ReplyRequest struct {
	Reply string `json:"reply"`
}

// TapRequest is a card tap reported by a door reader.
type TapRequest struct {
	ReaderID string `json:"reader_id"`
	CardUID  string `json:"card_uid"`
}

// AssignReaderRequest binds a reader to a room.
type AssignReaderRequest struct {
	RoomNumber string `json:"room_number"`
}

// CardWriteRequest queues a card-programming job for a reader.
type CardWriteRequest struct {
	RoomNumber string `json:"room_number"`
	GuestID    string `json:"guest_id"`
}
