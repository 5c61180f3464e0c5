package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/etiennegalea/housing-scraper/internal/models"
)

const defaultPushbulletURL = "https://api.pushbullet.com/v2/pushes"

// PushbulletClient pushes a note to all devices linked to the account.
type PushbulletClient struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

func NewPushbullet(token string) *PushbulletClient {
	return &PushbulletClient{
		apiURL:     defaultPushbulletURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (c *PushbulletClient) Notify(ctx context.Context, subject string, listings []models.Listing) error {
	payload := pushPayload{
		Type:  "note",
		Title: subject,
		Body:  renderCompactBody(listings),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushbullet status %s: %s", resp.Status, string(bodyBytes))
	}
	slog.Info("Push notification sent", "count", len(listings))
	return nil
}
