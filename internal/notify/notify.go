// Package notify delivers reminder messages to users over push channels.
package notify

import (
	"context"

	"attendance-tracker/internal/model"
)

type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// Notifier is one delivery channel. Implementations deliver best effort and
// report failures to the caller, who decides whether to log them.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, user *model.User, msg Message) error
}
