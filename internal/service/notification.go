package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
)

// SubscriptionRepository persists web push subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	DeleteByEndpoint(ctx context.Context, endpoint string, userID *bson.ObjectID) (bool, error)
}

type NotificationService struct {
	subs      SubscriptionRepository
	publicKey string
}

func NewNotificationService(subs SubscriptionRepository, vapidPublicKey string) *NotificationService {
	return &NotificationService{subs: subs, publicKey: vapidPublicKey}
}

// PublicKey returns the VAPID application server key, empty when push is
// not configured.
func (s *NotificationService) PublicKey() string {
	return s.publicKey
}

func (s *NotificationService) Subscribe(ctx context.Context, user *model.User, endpoint string, keys model.PushKeys) (*model.PushSubscription, error) {
	if endpoint == "" || keys.P256dh == "" || keys.Auth == "" {
		return nil, fmt.Errorf("%w: endpoint and keys are required", ErrValidation)
	}
	sub := &model.PushSubscription{UserID: user.ID, Endpoint: endpoint, Keys: keys}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe removes one of the user's own subscriptions.
func (s *NotificationService) Unsubscribe(ctx context.Context, user *model.User, endpoint string) error {
	ok, err := s.subs.DeleteByEndpoint(ctx, endpoint, &user.ID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
