package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"attendance-tracker/internal/model"
)

type SubscriptionStore struct {
	coll *mongo.Collection
}

func NewSubscriptionStore(ctx context.Context, db *MongoDB) (*SubscriptionStore, error) {
	subs := db.Collection("push_subscriptions")

	if _, err := subs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create push_subscriptions indexes: %w", err)
	}

	return &SubscriptionStore{coll: subs}, nil
}

// Upsert stores sub keyed by its endpoint. A browser that re-subscribes, or a
// device that changes hands, overwrites the previous owner and keys.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	sub.CreatedAt = time.Now()
	res := s.coll.FindOneAndUpdate(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set": bson.M{"user_id": sub.UserID, "keys": sub.Keys},
			"$setOnInsert": bson.M{"created_at": sub.CreatedAt},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var stored model.PushSubscription
	if err := res.Decode(&stored); err != nil {
		return fmt.Errorf("upsert subscription: %w", mapWriteError(err))
	}
	*sub = stored
	return nil
}

// GetByUser returns all subscriptions registered by a user.
func (s *SubscriptionStore) GetByUser(ctx context.Context, userID bson.ObjectID) ([]*model.PushSubscription, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}
	var results []*model.PushSubscription
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}
	return results, nil
}

// DeleteByEndpoint removes the subscription for endpoint, optionally only when
// it belongs to userID. It reports whether a subscription was removed.
func (s *SubscriptionStore) DeleteByEndpoint(ctx context.Context, endpoint string, userID *bson.ObjectID) (bool, error) {
	filter := bson.M{"endpoint": endpoint}
	if userID != nil {
		filter["user_id"] = *userID
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return res.DeletedCount == 1, nil
}
