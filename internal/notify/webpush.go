package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/v2/bson"

	"attendance-tracker/internal/model"
)

// SubscriptionSource lists and prunes persisted push subscriptions.
type SubscriptionSource interface {
	GetByUser(ctx context.Context, userID bson.ObjectID) ([]*model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string, userID *bson.ObjectID) (bool, error)
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

type sendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// WebPush sends Web Push notifications to every subscription of a user.
// Subscriptions the push service reports as gone are deleted.
type WebPush struct {
	subs       SubscriptionSource
	vapid      VAPIDConfig
	send       sendFunc
	httpClient *http.Client
	timeout    time.Duration // per subscription
}

const deliveryTimeout = 10 * time.Second

func NewWebPush(subs SubscriptionSource, vapid VAPIDConfig) *WebPush {
	return &WebPush{
		subs:       subs,
		vapid:      vapid,
		send:       webpush.SendNotificationWithContext,
		httpClient: &http.Client{Timeout: deliveryTimeout},
		timeout:    deliveryTimeout,
	}
}

func (w *WebPush) Name() string { return "webpush" }

func (w *WebPush) Notify(ctx context.Context, user *model.User, msg Message) error {
	subs, err := w.subs.GetByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get subscriptions: %w", err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var errs []error
	for _, sub := range subs {
		if err := w.deliver(ctx, sub, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *WebPush) deliver(ctx context.Context, sub *model.PushSubscription, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.send(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &webpush.Options{
		HTTPClient:      w.httpClient,
		Subscriber:      w.vapid.Subject,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             int((12 * time.Hour).Seconds()),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if _, err := w.subs.DeleteByEndpoint(ctx, sub.Endpoint, nil); err != nil {
			return fmt.Errorf("prune subscription: %w", err)
		}
		log.Printf("webpush: removed expired subscription %s", sub.Endpoint)
		return fmt.Errorf("subscription gone (%d): %s", resp.StatusCode, sub.Endpoint)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push service error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
