package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// Alert is one notification pushed by the server over its websocket.
type Alert struct {
	Type string         `json:"type"`
	Size int            `json:"size"`
	Data map[string]any `json:"data,omitempty"`
}

// Listen connects to the notifications websocket and calls fn for each
// alert until ctx ends. A ctx deadline is the normal way to stop, and it
// is not reported as an error.
func (c *Client) Listen(ctx context.Context, fn func(Alert)) error {
	u := c.resolve("/:/websockets/notifications", nil)
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("X-Plex-Token", c.token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("X-Plex-Client-Identifier", c.clientID)
	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return fmt.Errorf("plex: connecting to notifications: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(4 << 20)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("plex: reading notification: %w", err)
		}
		alert, err := decodeAlert(data)
		if err != nil {
			c.logger.Debug("Skipping undecodable notification", "error", err)
			continue
		}
		fn(alert)
	}
}

func decodeAlert(data []byte) (Alert, error) {
	var env struct {
		NotificationContainer map[string]json.RawMessage `json:"NotificationContainer"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Alert{}, err
	}
	if env.NotificationContainer == nil {
		return Alert{}, errors.New("missing NotificationContainer")
	}

	alert := Alert{Data: map[string]any{}}
	for k, raw := range env.NotificationContainer {
		switch k {
		case "type":
			_ = json.Unmarshal(raw, &alert.Type)
		case "size":
			_ = json.Unmarshal(raw, &alert.Size)
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				alert.Data[k] = v
			}
		}
	}
	return alert, nil
}
