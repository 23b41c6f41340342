package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSlackAPIBase = "https://slack.com/api"

// SlackClient posts direct messages through the Slack Web API using a bot
// token. It implements Gateway for the chat channel.
type SlackClient struct {
	httpClient *http.Client
	apiBase    string
	botToken   string
	ackBaseURL string
}

func NewSlackClient(botToken string, ackBaseURL string) *SlackClient {
	return &SlackClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    defaultSlackAPIBase,
		botToken:   botToken,
		ackBaseURL: ackBaseURL,
	}
}

// WithAPIBase redirects API calls, used by tests to point at a local server.
func (client *SlackClient) WithAPIBase(apiBase string) *SlackClient {
	client.apiBase = apiBase
	return client
}

func (client *SlackClient) Send(intent Intent) error {
	return client.PostMessage(intent.Recipient, renderChatMessage(intent, client.ackBaseURL))
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage sends plain text to a channel or user via chat.postMessage.
func (client *SlackClient) PostMessage(chatID string, text string) error {
	payload, err := json.Marshal(postMessageRequest{Channel: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal chat.postMessage payload: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, client.apiBase+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build chat.postMessage request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json; charset=utf-8")
	request.Header.Set("Authorization", "Bearer "+client.botToken)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("post chat message: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read chat.postMessage response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("chat.postMessage returned status %d", response.StatusCode)
	}

	var parsed postMessageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode chat.postMessage response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("chat.postMessage rejected: %s", parsed.Error)
	}
	return nil
}

func renderChatMessage(intent Intent, ackBaseURL string) string {
	switch intent.Tier {
	case TierSelf:
		return fmt.Sprintf(
			"Reminder: you have not logged in yet today (%s). Your expected login time is %s. Please log in or reply here.",
			intent.Workday, intent.Expected,
		)
	case TierSupervisor:
		return fmt.Sprintf(
			"%s has not logged in on %s (expected by %s) and has not responded to reminders.\nAcknowledge here: %s\nor reply \"ack\" in this conversation.",
			intent.UserName, intent.Workday, intent.Expected, AckLink(ackBaseURL, intent.AckToken),
		)
	case TierSecondSupervisor:
		return fmt.Sprintf(
			"Escalation: %s has not logged in on %s (expected by %s) and the supervisor has not acknowledged.\nAcknowledge here: %s\nor reply \"ack\" in this conversation.",
			intent.UserName, intent.Workday, intent.Expected, AckLink(ackBaseURL, intent.AckToken),
		)
	default:
		return fmt.Sprintf("Attendance notice for %s on %s.", intent.UserName, intent.Workday)
	}
}

// AckLink builds the one-time acknowledgment URL carried in notifications.
func AckLink(baseURL string, token string) string {
	return fmt.Sprintf("%s/acknowledge?token=%s", baseURL, token)
}
