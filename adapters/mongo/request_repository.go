package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/novahotels/concierge/domain/entities"
	"github.com/novahotels/concierge/domain/repositories"
)

type RequestRepository struct {
	collection *mongo.Collection
}

// NewRequestRepository creates a new MongoDB request repository
func NewRequestRepository(db *mongo.Database) repositories.RequestRepository {
	return &RequestRepository{
		collection: db.Collection("requests"),
	}
}

// Create implements repositories.RequestRepository
func (r *RequestRepository) Create(ctx context.Context, request *entities.Request) error {
	if request == nil {
		return errors.New("request cannot be nil")
	}
	if err := request.Validate(); err != nil {
		return err
	}

	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// List implements repositories.RequestRepository. An empty reqType returns
// requests and complaints alike.
func (r *RequestRepository) List(ctx context.Context, reqType entities.RequestType) ([]*entities.Request, error) {
	filter := bson.M{}
	if reqType != "" {
		filter["type"] = reqType
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*entities.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	return requests, nil
}

// SetReply implements repositories.RequestRepository
func (r *RequestRepository) SetReply(ctx context.Context, requestID, reply string) error {
	if requestID == "" {
		return errors.New("request ID cannot be empty")
	}
	if reply == "" {
		return errors.New("reply cannot be empty")
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"reply":       reply,
			"reply_shown": false,
			"replied_at":  now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": requestID}, update)
	if err != nil {
		return fmt.Errorf("failed to set reply: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("request with ID %s not found", requestID)
	}

	return nil
}

// PendingReplies implements repositories.RequestRepository
func (r *RequestRepository) PendingReplies(ctx context.Context, guestID string) ([]*entities.Request, error) {
	if guestID == "" {
		return nil, errors.New("guest ID cannot be empty")
	}

	filter := bson.M{
		"guest_id":    guestID,
		"reply":       bson.M{"$nin": bson.A{"", nil}},
		"reply_shown": false,
	}
	opts := options.Find().SetSort(bson.M{"replied_at": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending replies: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*entities.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode pending replies: %w", err)
	}

	return requests, nil
}

// MarkRepliesShown implements repositories.RequestRepository
func (r *RequestRepository) MarkRepliesShown(ctx context.Context, requestIDs []string) error {
	if len(requestIDs) == 0 {
		return nil
	}

	ids := bson.A{}
	for _, id := range requestIDs {
		ids = append(ids, id)
	}

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"reply_shown": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark replies shown: %w", err)
	}

	return nil
}
