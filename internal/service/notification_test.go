package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
)

type memSubscriptions struct {
	mu   sync.Mutex
	subs map[string]*model.PushSubscription
}

func (m *memSubscriptions) Upsert(_ context.Context, sub *model.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs == nil {
		m.subs = map[string]*model.PushSubscription{}
	}
	if prev, ok := m.subs[sub.Endpoint]; ok {
		sub.ID = prev.ID
	} else {
		sub.ID = bson.NewObjectID()
	}
	cp := *sub
	m.subs[sub.Endpoint] = &cp
	return nil
}

func (m *memSubscriptions) DeleteByEndpoint(_ context.Context, endpoint string, userID *bson.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[endpoint]
	if !ok || (userID != nil && sub.UserID != *userID) {
		return false, nil
	}
	delete(m.subs, endpoint)
	return true, nil
}

func TestSubscribe(t *testing.T) {
	subs := &memSubscriptions{}
	svc := NewNotificationService(subs, "pub")
	ana := &model.User{ID: bson.NewObjectID()}
	bo := &model.User{ID: bson.NewObjectID()}
	keys := model.PushKeys{P256dh: "p", Auth: "a"}
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, ana, "https://push.example/1", keys)
	require.NoError(t, err)

	// Same browser, new owner.
	second, err := svc.Subscribe(ctx, bo, "https://push.example/1", keys)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, subs.subs, 1)
	assert.Equal(t, bo.ID, subs.subs["https://push.example/1"].UserID)

	_, err = svc.Subscribe(ctx, ana, "", keys)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Subscribe(ctx, ana, "https://push.example/2", model.PushKeys{P256dh: "p"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, "pub", svc.PublicKey())
}

func TestUnsubscribeOnlyOwn(t *testing.T) {
	subs := &memSubscriptions{}
	svc := NewNotificationService(subs, "")
	ana := &model.User{ID: bson.NewObjectID()}
	bo := &model.User{ID: bson.NewObjectID()}
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, ana, "https://push.example/1", model.PushKeys{P256dh: "p", Auth: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, bo, "https://push.example/1"), ErrNotFound)
	assert.NoError(t, svc.Unsubscribe(ctx, ana, "https://push.example/1"))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, ana, "https://push.example/1"), ErrNotFound)
}
