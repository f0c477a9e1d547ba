package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Payload is the JSON body posted to every matching endpoint. The field
// names are a published contract; consumers parse them as-is.
type Payload struct {
	Event        string    `json:"event"`
	GalleryID    uuid.UUID `json:"gallery_id"`
	PropertyName string    `json:"property_name,omitempty"`
	ClientEmails []string  `json:"client_emails,omitempty"`
	DownloadLink string    `json:"download_link,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Client fans out lifecycle events to the configured endpoints.
type Client struct {
	endpoints []Endpoint
	http      *http.Client
	log       *logger.Logger
}

// NewClient creates a webhook client with the given endpoints and timeout.
func NewClient(endpoints []Endpoint, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

// HasEndpoints reports whether any endpoint is configured.
func (c *Client) HasEndpoints() bool {
	return len(c.endpoints) > 0
}

// Dispatch posts the payload to every endpoint subscribed to the event.
// Deliveries run concurrently; every endpoint is attempted even when others
// fail, and the first error is returned so the caller can retry the dispatch.
func (c *Client) Dispatch(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var g errgroup.Group
	for _, ep := range c.endpoints {
		if !ep.Matches(payload.Event) {
			continue
		}
		g.Go(func() error {
			if err := c.deliver(ctx, ep, body); err != nil {
				c.log.DispatchError(payload.Event, payload.GalleryID.String(), err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Client) deliver(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: build request: %w", ep.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.Secret != "" {
		req.Header.Set("X-Webhook-Signature", sign(ep.Secret, body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: unexpected status %d", ep.Name, resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
