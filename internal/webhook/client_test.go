package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

func testPayload(event string) Payload {
	return Payload{
		Event:        event,
		GalleryID:    uuid.New(),
		PropertyName: "Maple Street 12",
		ClientEmails: []string{"client@example.com"},
		OccurredAt:   time.Now().UTC(),
	}
}

func TestDispatchSignsRequests(t *testing.T) {
	const secret = "test-secret"
	var gotSignature string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "crm", URL: srv.URL, Secret: secret}}, time.Second, logger.New("development"))
	if err := c.Dispatch(context.Background(), testPayload("deliver")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Errorf("signature = %q, want %q", gotSignature, want)
	}
}

func TestDispatchBodyFieldNames(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	payload := testPayload("deliver")
	payload.DownloadLink = "https://downloads.example.com/final.zip"

	c := NewClient([]Endpoint{{Name: "crm", URL: srv.URL}}, time.Second, logger.New("development"))
	if err := c.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}

	// Consumers parse these names; renaming them breaks every subscriber.
	for _, key := range []string{"event", "gallery_id", "client_emails", "download_link"} {
		if _, ok := body[key]; !ok {
			t.Errorf("body missing %q, got keys %v", key, keysOf(body))
		}
	}
	for _, key := range []string{"galleryId", "clientEmails", "downloadLink"} {
		if _, ok := body[key]; ok {
			t.Errorf("body carries unexpected key %q", key)
		}
	}
}

func keysOf(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestDispatchAttemptsEveryEndpoint(t *testing.T) {
	var okCalls atomic.Int32
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		okCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failSrv.Close()

	c := NewClient([]Endpoint{
		{Name: "broken", URL: failSrv.URL},
		{Name: "crm", URL: okSrv.URL},
	}, time.Second, logger.New("development"))

	err := c.Dispatch(context.Background(), testPayload("send"))
	if err == nil {
		t.Fatal("Dispatch() error = nil, want failure from broken endpoint")
	}
	if okCalls.Load() != 1 {
		t.Errorf("healthy endpoint calls = %d, want 1", okCalls.Load())
	}
}

func TestDispatchFiltersByEvent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Name: "crm", URL: srv.URL, Events: []string{"deliver"}}}, time.Second, logger.New("development"))

	if err := c.Dispatch(context.Background(), testPayload("send")); err != nil {
		t.Fatalf("Dispatch(send) error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls after filtered event = %d, want 0", calls.Load())
	}

	if err := c.Dispatch(context.Background(), testPayload("deliver")); err != nil {
		t.Fatalf("Dispatch(deliver) error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls after matching event = %d, want 1", calls.Load())
	}
}

func TestEndpointMatches(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		event    string
		want     bool
	}{
		{"empty list matches everything", Endpoint{}, "send", true},
		{"listed event matches", Endpoint{Events: []string{"send", "deliver"}}, "deliver", true},
		{"unlisted event does not match", Endpoint{Events: []string{"send"}}, "deliver", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.endpoint.Matches(tt.event); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestLoadEndpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	content := `endpoints:
  - name: crm
    url: https://crm.example.com/hooks/galleries
    secret: s3cret
    events:
      - deliver
  - name: portal-sync
    url: https://portal.example.com/hooks
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	endpoints, err := LoadEndpoints(path)
	if err != nil {
		t.Fatalf("LoadEndpoints() error = %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(endpoints))
	}
	if endpoints[0].Name != "crm" || endpoints[0].Secret != "s3cret" {
		t.Errorf("first endpoint = %+v", endpoints[0])
	}
	if len(endpoints[1].Events) != 0 {
		t.Errorf("second endpoint should subscribe to all events, got %v", endpoints[1].Events)
	}
}

func TestLoadEndpointsMissingFile(t *testing.T) {
	endpoints, err := LoadEndpoints(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadEndpoints() error = %v", err)
	}
	if len(endpoints) != 0 {
		t.Errorf("endpoints = %d, want 0", len(endpoints))
	}
}

func TestLoadEndpointsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	if err := os.WriteFile(path, []byte("endpoints:\n  - url: https://example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadEndpoints(path); err == nil {
		t.Fatal("LoadEndpoints() error = nil, want name validation failure")
	}
}
