package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"attendance-tracker/internal/model"
	"attendance-tracker/internal/notify"
)

// Client is a minimal Mattermost REST client used to DM attendance reminders
// from a bot account.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client

	mu    sync.Mutex
	botID string // resolved on first DM
}

func NewClient(baseURL, botToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		botToken:   botToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Post represents a Mattermost post.
type Post struct {
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

// User holds the fields of a Mattermost user we need.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreatePost creates a new post in a channel.
func (c *Client) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	var result Post
	if err := c.doJSON(ctx, http.MethodPost, "/api/v4/posts", post, &result); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &result, nil
}

// SendDM sends a direct message to a user.
func (c *Client) SendDM(ctx context.Context, userID, message string) error {
	botID, err := c.botUserID(ctx)
	if err != nil {
		return err
	}

	var channel struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v4/channels/direct", []string{userID, botID}, &channel); err != nil {
		return fmt.Errorf("create dm channel: %w", err)
	}

	_, err = c.CreatePost(ctx, &Post{
		ChannelID: channel.ID,
		Message:   message,
	})
	return err
}

// botUserID returns the bot's own user id, fetched once. A failed lookup is
// retried on the next call.
func (c *Client) botUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.botID != "" {
		return c.botID, nil
	}
	me, err := c.GetMe(ctx)
	if err != nil {
		return "", err
	}
	c.botID = me.ID
	return c.botID, nil
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v4/users/me", nil, &u); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &u, nil
}

// GetUserByEmail looks up a Mattermost user by email address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v4/users/email/"+url.PathEscape(email), nil, &u); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (c *Client) Name() string { return "mattermost" }

// Notify implements notify.Notifier by DMing the Mattermost account that
// shares the user's email.
func (c *Client) Notify(ctx context.Context, user *model.User, msg notify.Message) error {
	mmUser, err := c.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	return c.SendDM(ctx, mmUser.ID, fmt.Sprintf("#### %s\n%s", msg.Title, msg.Body))
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
