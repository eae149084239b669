package http

import (
	"log"
	"net/http"
	"time"

	"muvbackoffice/internal/feed"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	feedWriteWait    = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

type feedEventJSON struct {
	Type    string     `json:"type"`
	Order   *orderJSON `json:"order,omitempty"`
	OrderID string     `json:"orderId,omitempty"`
}

func toFeedJSON(ev feed.Event) feedEventJSON {
	out := feedEventJSON{Type: ev.Type, OrderID: ev.OrderID}
	if ev.Order != nil {
		order := toOrderJSON(ev.Order)
		out.Order = &order
		out.OrderID = ev.Order.ID
	}
	return out
}

// OrderFeed streams order events to an authenticated admin client. The
// requireAdmin middleware has already authorized the session; the socket
// lives until the client disconnects or the server shuts down.
func (h *Handler) OrderFeed(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.Feed.Subscribe()
	defer cancel()
	log.Printf("order feed connected for %s", sess.Email)

	// Read pump: the client sends nothing we care about, but reading is how
	// close frames and dead connections are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(toFeedJSON(ev)); err != nil {
				log.Printf("feed write failed for %s: %v", sess.Email, err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
