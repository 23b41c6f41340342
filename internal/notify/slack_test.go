package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostMessageSendsBearerTokenAndPayload(t *testing.T) {
	t.Parallel()

	var received postMessageRequest
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		authorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(postMessageResponse{OK: true})
	}))
	defer server.Close()

	client := NewSlackClient("xoxb-test", "http://localhost").WithAPIBase(server.URL)
	if err := client.PostMessage("D123", "hello"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if authorization != "Bearer xoxb-test" {
		t.Fatalf("expected bearer token header, got %q", authorization)
	}
	if received.Channel != "D123" || received.Text != "hello" {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestPostMessageSurfacesAPIRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(postMessageResponse{OK: false, Error: "channel_not_found"})
	}))
	defer server.Close()

	client := NewSlackClient("xoxb-test", "http://localhost").WithAPIBase(server.URL)
	err := client.PostMessage("D999", "hello")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestSupervisorMessageCarriesAckLink(t *testing.T) {
	t.Parallel()

	message := renderChatMessage(Intent{
		Tier:     TierSupervisor,
		UserName: "Riley",
		Workday:  "2026-08-31",
		Expected: "09:00",
		AckToken: "tok123",
	}, "https://rollcall.example.com")

	if !strings.Contains(message, "https://rollcall.example.com/acknowledge?token=tok123") {
		t.Fatalf("expected acknowledgment link in message, got %q", message)
	}
	if !strings.Contains(message, "Riley") {
		t.Fatalf("expected user name in message, got %q", message)
	}
}
