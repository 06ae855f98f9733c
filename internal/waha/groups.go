package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Chat kinds returned by ListGroupsAndChannels.
const (
	KindGroup   = "group"
	KindChannel = "channel"
)

// Chat is a broadcast destination.
type Chat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// rawChat tolerates the id shapes different gateway engines return.
type rawChat struct {
	ID      json.RawMessage `json:"id"`
	Name    string          `json:"name"`
	Subject string          `json:"subject"`
}

func (r rawChat) chatID() string {
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		return s
	}
	var obj struct {
		Serialized string `json:"_serialized"`
	}
	if err := json.Unmarshal(r.ID, &obj); err == nil {
		return obj.Serialized
	}
	return ""
}

func (r rawChat) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Subject
}

// ListGroupsAndChannels returns the session's groups followed by its channels.
// A groups failure fails the call; a channels failure is logged and groups alone are returned.
func (c *Client) ListGroupsAndChannels(ctx context.Context, t Target) ([]Chat, error) {
	if t.Session == "" {
		return nil, ErrSessionRequired
	}

	groups, err := c.listChats(ctx, "list groups", t, "/api/%s/groups", KindGroup)
	if err != nil {
		return nil, err
	}

	channels, err := c.listChats(ctx, "list channels", t, "/api/%s/channels", KindChannel)
	if err != nil {
		c.logger.Warn("channel listing failed, returning groups only", "session", t.Session, "error", err)
		return groups, nil
	}

	return append(groups, channels...), nil
}

func (c *Client) listChats(ctx context.Context, op string, t Target, pathFormat, kind string) ([]Chat, error) {
	data, _, err := c.do(ctx, op, t, http.MethodGet, t.sessionPath(pathFormat), nil, nil, "application/json")
	if err != nil {
		return nil, err
	}

	raws, err := decodeChats(data)
	if err != nil {
		return nil, &GatewayError{Op: op, Status: http.StatusOK, Body: truncate(data), Err: err}
	}

	chats := make([]Chat, 0, len(raws))
	for _, r := range raws {
		id := r.chatID()
		if id == "" {
			continue
		}
		chats = append(chats, Chat{ID: id, Name: r.displayName(), Kind: kind})
	}
	return chats, nil
}

// decodeChats accepts either a JSON array or an object keyed by chat id.
func decodeChats(data []byte) ([]rawChat, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var byID map[string]rawChat
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, err
		}
		out := make([]rawChat, 0, len(byID))
		for id, r := range byID {
			if len(r.ID) == 0 {
				r.ID, _ = json.Marshal(id)
			}
			out = append(out, r)
		}
		return out, nil
	}
	var list []rawChat
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}
