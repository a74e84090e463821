package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// FCMConfig holds Firebase Cloud Messaging configuration
type FCMConfig struct {
	ServerKey string
	ProjectID string
}

// FCMClient sends push notifications via Firebase Cloud Messaging.
// Delivery is best effort; failures are logged and never propagated.
type FCMClient struct {
	config     FCMConfig
	httpClient *http.Client
}

// NewFCMClient creates a new FCM client
func NewFCMClient(config FCMConfig) *FCMClient {
	return &FCMClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PushMessage represents a push notification
type PushMessage struct {
	Token string // Device token
	Title string
	Body  string
	Data  map[string]string
}

// FCMRequest represents the FCM HTTP v1 API request
type FCMRequest struct {
	Message FCMMessage `json:"message"`
}

type FCMMessage struct {
	Token        string            `json:"token"`
	Notification *FCMNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *FCMAndroid       `json:"android,omitempty"`
}

type FCMNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type FCMAndroid struct {
	Priority string `json:"priority,omitempty"` // "high" or "normal"
}

// Send sends a push notification
func (c *FCMClient) Send(ctx context.Context, msg *PushMessage) error {
	request := FCMRequest{
		Message: FCMMessage{
			Token: msg.Token,
			Notification: &FCMNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data:    msg.Data,
			Android: &FCMAndroid{Priority: "high"},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal FCM request: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", c.config.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.ServerKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send FCM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("FCM returned status %d", resp.StatusCode)
	}

	return nil
}

// SendMultiple fans out a push notification to multiple device tokens,
// fire-and-forget per token.
func (c *FCMClient) SendMultiple(tokens []string, title, body string, data map[string]string) {
	for _, token := range tokens {
		msg := &PushMessage{
			Token: token,
			Title: title,
			Body:  body,
			Data:  data,
		}
		go func(m *PushMessage) {
			if err := c.Send(context.Background(), m); err != nil {
				log.Debug().Err(err).Msg("Push delivery failed")
			}
		}(msg)
	}
}
