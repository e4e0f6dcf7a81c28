package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PushKeys are the browser-generated keys of a web push subscription.
type PushKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh" validate:"required"`
	Auth   string `bson:"auth" json:"auth" validate:"required"`
}

type PushSubscription struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user_id" json:"userId"`
	Endpoint  string        `bson:"endpoint" json:"endpoint"`
	Keys      PushKeys      `bson:"keys" json:"keys"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
}
