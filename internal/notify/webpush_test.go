package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
)

type memSubs struct {
	subs    []*model.PushSubscription
	deleted []string
}

func (m *memSubs) GetByUser(_ context.Context, userID bson.ObjectID) ([]*model.PushSubscription, error) {
	var out []*model.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubs) DeleteByEndpoint(_ context.Context, endpoint string, _ *bson.ObjectID) (bool, error) {
	m.deleted = append(m.deleted, endpoint)
	return true, nil
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func TestWebPushNotify(t *testing.T) {
	user := &model.User{ID: bson.NewObjectID()}
	other := bson.NewObjectID()
	subs := &memSubs{subs: []*model.PushSubscription{
		{UserID: user.ID, Endpoint: "https://push.example/ok", Keys: model.PushKeys{P256dh: "p", Auth: "a"}},
		{UserID: user.ID, Endpoint: "https://push.example/gone"},
		{UserID: user.ID, Endpoint: "https://push.example/broken"},
		{UserID: other, Endpoint: "https://push.example/other"},
	}}

	var sent []string
	var payload Message
	wp := NewWebPush(subs, VAPIDConfig{PublicKey: "pub", PrivateKey: "priv", Subject: "mailto:ops@example.com"})
	wp.send = func(_ context.Context, body []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		sent = append(sent, sub.Endpoint)
		assert.Equal(t, "pub", opts.VAPIDPublicKey)
		switch sub.Endpoint {
		case "https://push.example/gone":
			return response(http.StatusGone), nil
		case "https://push.example/broken":
			return nil, errors.New("connection refused")
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "p", sub.Keys.P256dh)
		return response(http.StatusCreated), nil
	}

	err := wp.Notify(context.Background(), user, Message{Title: "Reminder", Body: "Check out"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "subscription gone")
	assert.ElementsMatch(t, []string{"https://push.example/ok", "https://push.example/gone", "https://push.example/broken"}, sent)
	assert.Equal(t, []string{"https://push.example/gone"}, subs.deleted)
	assert.Equal(t, Message{Title: "Reminder", Body: "Check out"}, payload)
}

func TestWebPushNoSubscriptions(t *testing.T) {
	wp := NewWebPush(&memSubs{}, VAPIDConfig{})
	wp.send = func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		t.Fatal("send should not be called")
		return nil, nil
	}
	assert.NoError(t, wp.Notify(context.Background(), &model.User{ID: bson.NewObjectID()}, Message{}))
}

func TestWebPushHungEndpointDoesNotBlockOthers(t *testing.T) {
	user := &model.User{ID: bson.NewObjectID()}
	subs := &memSubs{subs: []*model.PushSubscription{
		{UserID: user.ID, Endpoint: "https://push.example/hung"},
		{UserID: user.ID, Endpoint: "https://push.example/ok"},
	}}

	var delivered []string
	wp := NewWebPush(subs, VAPIDConfig{})
	wp.timeout = 50 * time.Millisecond
	wp.send = func(ctx context.Context, _ []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		hc, ok := opts.HTTPClient.(*http.Client)
		require.True(t, ok)
		assert.NotZero(t, hc.Timeout)
		if sub.Endpoint == "https://push.example/hung" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		delivered = append(delivered, sub.Endpoint)
		return response(http.StatusCreated), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := wp.Notify(ctx, user, Message{Title: "Reminder"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "push.example/hung")
	assert.NotContains(t, err.Error(), "push.example/ok")
	assert.Equal(t, []string{"https://push.example/ok"}, delivered)
}
