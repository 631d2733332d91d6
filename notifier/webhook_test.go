package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/encoding/json"
)

func TestWebhookNotifierPost(t *testing.T) {
	payloadCh := make(chan statusPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload statusPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(NotifierConfig{WebhookURL: server.URL})
	if err := n.Post(context.Background(), "hello from the bot"); err != nil {
		t.Fatalf("post: %v", err)
	}

	payload := <-payloadCh
	if payload.Status != "hello from the bot" {
		t.Fatalf("status = %q", payload.Status)
	}
}

func TestWebhookNotifierNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(NotifierConfig{WebhookURL: server.URL})

	err := n.Post(context.Background(), "text")
	if !errors.Is(err, ErrChannel) {
		t.Fatalf("error %v does not match ErrChannel", err)
	}
}
