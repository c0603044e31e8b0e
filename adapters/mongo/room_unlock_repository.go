package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/novahotels/concierge/domain/repositories"
)

type RoomUnlockRepository struct {
	collection *mongo.Collection
}

// NewRoomUnlockRepository creates a new MongoDB room-unlock store
func NewRoomUnlockRepository(db *mongo.Database) repositories.RoomUnlockStore {
	return &RoomUnlockRepository{
		collection: db.Collection("room_unlocks"),
	}
}

type roomUnlockDoc struct {
	RoomNumber string    `bson:"_id"`
	CardUID    string    `bson:"card_uid,omitempty"`
	UnlockedAt time.Time `bson:"unlocked_at"`
}

// IsUnlocked implements repositories.RoomUnlockStore
func (r *RoomUnlockRepository) IsUnlocked(ctx context.Context, roomNumber string) (bool, error) {
	if roomNumber == "" {
		return false, errors.New("room number cannot be empty")
	}

	err := r.collection.FindOne(ctx, bson.M{"_id": roomNumber}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read unlock state: %w", err)
	}

	return true, nil
}

// Unlock implements repositories.RoomUnlockStore
func (r *RoomUnlockRepository) Unlock(ctx context.Context, roomNumber, cardUID string) error {
	if roomNumber == "" {
		return errors.New("room number cannot be empty")
	}

	doc := roomUnlockDoc{
		RoomNumber: roomNumber,
		CardUID:    cardUID,
		UnlockedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": roomNumber}, doc, opts); err != nil {
		return fmt.Errorf("failed to record unlock: %w", err)
	}

	return nil
}

// Lock implements repositories.RoomUnlockStore
func (r *RoomUnlockRepository) Lock(ctx context.Context, roomNumber string) error {
	if roomNumber == "" {
		return errors.New("room number cannot be empty")
	}

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": roomNumber}); err != nil {
		return fmt.Errorf("failed to clear unlock: %w", err)
	}

	return nil
}

// ResetAll implements repositories.RoomUnlockStore
func (r *RoomUnlockRepository) ResetAll(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset unlocks: %w", err)
	}

	return nil
}
