// Package hardware integrates the door card readers: tap ingestion that
// feeds the room-unlock store, reader-to-room assignment, and the polled
// queue of card-write jobs. State is owned by this service and injected
// where needed; it is never package-global.
package hardware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novahotels/concierge/domain/repositories"
)

// CardJob is a pending instruction for a reader to program a key card.
type CardJob struct {
	ID         string    `json:"id"`
	RoomNumber string    `json:"room_number"`
	GuestID    string    `json:"guest_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrReaderUnassigned is returned when a reader reports a tap before being
// assigned to a room.
var ErrReaderUnassigned = errors.New("reader is not assigned to a room")

// ReaderService owns the mutable reader state. Readers poll over HTTP, so
// access is guarded by a mutex rather than relying on any event-loop
// serialization.
type ReaderService struct {
	mu          sync.RWMutex
	assignments map[string]string     // readerID -> room number
	queue       map[string][]*CardJob // readerID -> pending card writes

	unlocks repositories.RoomUnlockStore
	logger  *zap.Logger
}

// NewReaderService creates the reader integration service.
func NewReaderService(unlocks repositories.RoomUnlockStore, logger *zap.Logger) *ReaderService {
	return &ReaderService{
		assignments: make(map[string]string),
		queue:       make(map[string][]*CardJob),
		unlocks:     unlocks,
		logger:      logger,
	}
}

// AssignReader binds a physical reader to a room.
func (s *ReaderService) AssignReader(readerID, roomNumber string) {
	s.mu.Lock()
	s.assignments[readerID] = roomNumber
	s.mu.Unlock()
	s.logger.Info("Reader assigned",
		zap.String("readerID", readerID),
		zap.String("roomNumber", roomNumber))
}

// ReaderRoom returns the room a reader is assigned to.
func (s *ReaderService) ReaderRoom(readerID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.assignments[readerID]
	return room, ok
}

// EnqueueCardWrite queues a card-programming job for a reader to pick up
// on its next poll.
func (s *ReaderService) EnqueueCardWrite(readerID, roomNumber, guestID string) *CardJob {
	job := &CardJob{
		ID:         uuid.NewString(),
		RoomNumber: roomNumber,
		GuestID:    guestID,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.queue[readerID] = append(s.queue[readerID], job)
	s.mu.Unlock()
	s.logger.Info("Card write queued",
		zap.String("readerID", readerID),
		zap.String("roomNumber", roomNumber))
	return job
}

// NextCardWrite pops the oldest pending card-write job for a reader.
func (s *ReaderService) NextCardWrite(readerID string) (*CardJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.queue[readerID]
	if len(jobs) == 0 {
		return nil, false
	}
	job := jobs[0]
	s.queue[readerID] = jobs[1:]
	return job, true
}

// RecordTap handles a key-card tap reported by a reader: the reader's
// room is marked unlocked, which gates the guest's concierge session open.
func (s *ReaderService) RecordTap(ctx context.Context, readerID, cardUID string) (string, error) {
	roomNumber, ok := s.ReaderRoom(readerID)
	if !ok {
		return "", ErrReaderUnassigned
	}

	if err := s.unlocks.Unlock(ctx, roomNumber, cardUID); err != nil {
		return "", err
	}

	s.logger.Info("Card tap recorded",
		zap.String("readerID", readerID),
		zap.String("roomNumber", roomNumber))
	return roomNumber, nil
}
