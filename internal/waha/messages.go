package waha

import (
	"context"
	"net/http"
	"strings"
)

type sendTextRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
}

// SendText sends a text message through t.Session. Failures are logged and
// reported as false; the underlying error is not returned.
func (c *Client) SendText(ctx context.Context, t Target, chatID, text string) bool {
	if t.Session == "" || chatID == "" {
		c.logger.Warn("send text skipped", "session", t.Session, "chat_id", chatID)
		return false
	}
	body := sendTextRequest{Session: t.Session, ChatID: chatID, Text: text}
	if err := c.call(ctx, "send text", t, http.MethodPost, "/api/sendText", nil, body, nil); err != nil {
		c.logger.Error("send text failed", "session", t.Session, "chat_id", chatID, "error", err)
		return false
	}
	return true
}

// ChatIDFromMobile converts "+919876543210" into the personal chat id "919876543210@c.us".
// It returns "" when mobile carries no digits.
func ChatIDFromMobile(mobile string) string {
	var b strings.Builder
	for _, r := range mobile {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + "@c.us"
}
