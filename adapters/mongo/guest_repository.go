package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/novahotels/concierge/domain/entities"
	"github.com/novahotels/concierge/domain/repositories"
)

type GuestRepository struct {
	collection *mongo.Collection
}

// NewGuestRepository creates a new MongoDB guest directory
func NewGuestRepository(db *mongo.Database) repositories.GuestDirectory {
	return &GuestRepository{
		collection: db.Collection("guests"),
	}
}

// GetByToken implements repositories.GuestDirectory
func (r *GuestRepository) GetByToken(ctx context.Context, token string) (*entities.Guest, error) {
	if token == "" {
		return nil, errors.New("guest token cannot be empty")
	}

	var guest entities.Guest
	err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No guest found, return nil without error
		}
		return nil, fmt.Errorf("failed to get guest by token: %w", err)
	}

	return &guest, nil
}

// FindByRoomAndName implements repositories.GuestDirectory
func (r *GuestRepository) FindByRoomAndName(ctx context.Context, roomNumber, firstName, lastName string) (*entities.Guest, error) {
	filter := bson.M{
		"room_number": roomNumber,
		"first_name":  firstName,
		"last_name":   lastName,
		"archived":    false,
	}

	var guest entities.Guest
	err := r.collection.FindOne(ctx, filter).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find guest by room and name: %w", err)
	}

	return &guest, nil
}

// List implements repositories.GuestDirectory
func (r *GuestRepository) List(ctx context.Context) ([]*entities.Guest, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"archived": false})
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer cursor.Close(ctx)

	var guests []*entities.Guest
	if err := cursor.All(ctx, &guests); err != nil {
		return nil, fmt.Errorf("failed to decode guests: %w", err)
	}

	return guests, nil
}

// Create implements repositories.GuestDirectory
func (r *GuestRepository) Create(ctx context.Context, guest *entities.Guest) error {
	if guest == nil {
		return errors.New("guest cannot be nil")
	}
	if err := guest.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if guest.CreatedAt.IsZero() {
		guest.CreatedAt = now
	}
	guest.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, guest); err != nil {
		return fmt.Errorf("failed to create guest: %w", err)
	}

	return nil
}

// Update implements repositories.GuestDirectory
func (r *GuestRepository) Update(ctx context.Context, guest *entities.Guest) error {
	if guest == nil {
		return errors.New("guest cannot be nil")
	}
	if guest.ID == "" {
		return errors.New("guest ID cannot be empty")
	}

	guest.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": guest.ID}, guest)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("guest with ID %s not found", guest.ID)
	}

	return nil
}
