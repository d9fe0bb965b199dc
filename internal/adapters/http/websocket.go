package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/curbside/internal/adapters/nats"
	"github.com/samirrijal/curbside/internal/pkg/metrics"
)

const wsQueryTimeout = 15 * time.Second

// wsControl is a client message that toggles the crossings.computed feed.
type wsControl struct {
	Action string `json:"action"` // "watch" | "unwatch"
}

// WebSocketHandler returns a handler answering one crossing query per client
// message. A message {"lat":..,"lon":..} gets a {pointCount, points} or
// {error, code} reply. With NATS configured, {"action":"watch"} relays every
// crossings.computed event to the client until {"action":"unwatch"}.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Debug("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		write := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var feed *nats.Subscription
		defer func() {
			if feed != nil {
				_ = feed.Unsubscribe()
			}
		}()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var ctl wsControl
			if json.Unmarshal(msg, &ctl) == nil && ctl.Action != "" {
				feed = handleControl(deps.NATS, ctl.Action, feed, write)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), wsQueryTimeout)
			reply := natsadapter.Respond(ctx, deps.Crossings, msg)
			cancel()
			if err := write(reply); err != nil {
				break
			}
		}

		slog.Debug("ws client disconnected", "remote", remoteAddr)
	}
}

// handleControl applies a watch/unwatch action and returns the current feed
// subscription.
func handleControl(nc *nats.Conn, action string, feed *nats.Subscription, write func([]byte) error) *nats.Subscription {
	status := func(s string) {
		out, _ := json.Marshal(map[string]string{"status": s, "subject": natsadapter.SubjectCrossingsComputed})
		_ = write(out)
	}
	fail := func(code, msg string) {
		out, _ := json.Marshal(natsadapter.ErrorReply{Error: msg, Code: code})
		_ = write(out)
	}

	switch action {
	case "watch":
		if nc == nil {
			fail("unavailable", "event feed not configured")
			return feed
		}
		if feed != nil {
			status("already watching")
			return feed
		}
		sub, err := nc.Subscribe(natsadapter.SubjectCrossingsComputed, func(m *nats.Msg) {
			_ = write(m.Data)
		})
		if err != nil {
			fail("internal_error", "subscribe failed: "+err.Error())
			return nil
		}
		status("watching")
		return sub
	case "unwatch":
		if feed == nil {
			fail("bad_request", "not watching")
			return nil
		}
		_ = feed.Unsubscribe()
		status("unwatched")
		return nil
	default:
		fail("bad_request", "unknown action: "+action)
		return feed
	}
}
