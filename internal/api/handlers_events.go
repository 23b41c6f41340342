package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mkale-dev/rollcall/internal/services"
)

const slackSignatureTolerance = 5 * time.Minute

var (
	loginKeywords  = []string{"login", "logged in", "logging in", "signing in", "here"}
	logoutKeywords = []string{"logout", "logged out", "logging out", "signing out", "leaving"}
	ackKeywords    = []string{"ack", "acknowledge", "acknowledged"}
)

// VerifySlackSignature authenticates the request against the Slack signing
// secret (v0 scheme over timestamp and raw body). An empty secret disables
// verification, which is only acceptable for local runs.
func (handler *Handler) VerifySlackSignature(c *fiber.Ctx) error {
	if handler.slackSigningSecret == "" {
		return c.Next()
	}

	timestampHeader := c.Get("X-Slack-Request-Timestamp")
	timestamp, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	age := time.Since(time.Unix(timestamp, 0))
	if age > slackSignatureTolerance || age < -slackSignatureTolerance {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	mac := hmac.New(sha256.New, []byte(handler.slackSigningSecret))
	fmt.Fprintf(mac, "v0:%s:", timestampHeader)
	mac.Write(c.Body())
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(c.Get("X-Slack-Signature"))) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	return c.Next()
}

type slackEventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
		User    string `json:"user"`
		BotID   string `json:"bot_id"`
		Text    string `json:"text"`
		Channel string `json:"channel"`
	} `json:"event"`
}

// SlackEvents ingests the Events API callback. Recognized keywords in direct
// messages record login/logout or acknowledge an escalation; everything else
// is accepted and ignored. Slack retries non-200 responses, so processing
// failures are logged rather than surfaced.
func (handler *Handler) SlackEvents(c *fiber.Ctx) error {
	var envelope slackEventEnvelope
	if err := json.Unmarshal(c.Body(), &envelope); err != nil {
		handler.logger.Printf("events: unreadable payload: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	if envelope.Type == "url_verification" {
		return c.JSON(fiber.Map{"challenge": envelope.Challenge})
	}
	if envelope.Type != "event_callback" {
		return c.SendStatus(fiber.StatusOK)
	}

	event := envelope.Event
	if event.Type != "message" || event.Subtype != "" || event.BotID != "" || event.User == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	handler.processMessage(event.User, event.Channel, event.Text)
	return c.SendStatus(fiber.StatusOK)
}

func (handler *Handler) processMessage(chatID string, channel string, text string) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch {
	case matchesKeyword(normalized, ackKeywords):
		handler.handleChatAcknowledgment(chatID, channel)
	case matchesKeyword(normalized, loginKeywords):
		handler.handleAttendance(chatID, channel, true)
	case matchesKeyword(normalized, logoutKeywords):
		handler.handleAttendance(chatID, channel, false)
	}
}

func (handler *Handler) handleAttendance(chatID string, channel string, login bool) {
	action := "login"
	recorded := "Login recorded. Have a good day!"
	if !login {
		action = "logout"
		recorded = "Logout recorded. See you tomorrow!"
	}

	var err error
	if login {
		err = handler.attendance.RecordLogin(chatID)
	} else {
		err = handler.attendance.RecordLogout(chatID)
	}
	if errors.Is(err, services.ErrUserNotFound) {
		return
	}
	if err != nil {
		handler.logger.Printf("events: recording %s for %s failed: %v", action, chatID, err)
		handler.reply(channel, "Something went wrong recording your "+action+". Please try again.")
		return
	}
	handler.reply(channel, recorded)
}

func (handler *Handler) handleChatAcknowledgment(chatID string, channel string) {
	err := handler.engine.AcknowledgeBySupervisor(chatID)
	if errors.Is(err, services.ErrNoPendingEscalation) {
		handler.reply(channel, "There is no escalation waiting for your acknowledgment.")
		return
	}
	if err != nil {
		handler.logger.Printf("events: acknowledgment by %s failed: %v", chatID, err)
		handler.reply(channel, "Something went wrong processing your acknowledgment. Please try again.")
		return
	}
	handler.reply(channel, "Acknowledged. The escalation is closed.")
}

func (handler *Handler) reply(channel string, text string) {
	if handler.chat == nil || channel == "" {
		return
	}
	if err := handler.chat.PostMessage(channel, text); err != nil {
		handler.logger.Printf("events: reply to %s failed: %v", channel, err)
	}
}

// matchesKeyword matches single-word keywords against whole words only, so
// "back" never reads as "ack". Multi-word phrases match as substrings.
func matchesKeyword(text string, keywords []string) bool {
	words := strings.Fields(text)
	for _, keyword := range keywords {
		if strings.ContainsRune(keyword, ' ') {
			if strings.Contains(text, keyword) {
				return true
			}
			continue
		}
		for _, word := range words {
			if strings.Trim(word, ".,!?:;") == keyword {
				return true
			}
		}
	}
	return false
}
