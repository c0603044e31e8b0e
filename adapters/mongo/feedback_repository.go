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

type FeedbackRepository struct {
	collection *mongo.Collection
}

// NewFeedbackRepository creates a new MongoDB feedback repository
func NewFeedbackRepository(db *mongo.Database) repositories.FeedbackRepository {
	return &FeedbackRepository{
		collection: db.Collection("feedback"),
	}
}

// Create implements repositories.FeedbackRepository
func (r *FeedbackRepository) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return errors.New("feedback cannot be nil")
	}
	if err := feedback.Validate(); err != nil {
		return err
	}

	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, feedback); err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

// List implements repositories.FeedbackRepository
func (r *FeedbackRepository) List(ctx context.Context) ([]*entities.Feedback, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var feedback []*entities.Feedback
	if err := cursor.All(ctx, &feedback); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}

	return feedback, nil
}
