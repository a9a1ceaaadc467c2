package booking

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"keyboardquipo/auth"
	"keyboardquipo/models"
	"keyboardquipo/mq"
	"keyboardquipo/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many events may queue for one slow connection
	// before further events for it are dropped.
	sendBuffer = 16
)

// subscriber is one open connection and its outgoing queue. Only
// writePump writes to conn.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *subscriber) writePump() {
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.conn.Close()
			return
		}
	}
}

// Hub tracks open live-feed connections per buyer email.
type Hub struct {
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[string][]*subscriber
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		subscribers: make(map[string][]*subscriber),
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// Run relays bus events to subscribers until ctx is done.
func (hub *Hub) Run(ctx context.Context, bus mq.Bus) error {
	return bus.Listen(ctx, hub.Dispatch)
}

// Dispatch sends ev to every connection of the booking's buyer.
func (hub *Hub) Dispatch(ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Hub] marshal event: %v", err)
		return
	}
	hub.broadcast(ev.Buyer, data)
}

func (hub *Hub) add(key string, conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	hub.mu.Lock()
	hub.subscribers[key] = append(hub.subscribers[key], sub)
	hub.mu.Unlock()
	return sub
}

// remove drops sub and closes its queue, which stops its writePump.
func (hub *Hub) remove(key string, sub *subscriber) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	subs := hub.subscribers[key]
	newList := make([]*subscriber, 0, len(subs))
	for _, s := range subs {
		if s == sub {
			close(s.send)
			continue
		}
		newList = append(newList, s)
	}
	if len(newList) == 0 {
		delete(hub.subscribers, key)
		return
	}
	hub.subscribers[key] = newList
}

// broadcast queues val for every connection under key without blocking;
// a connection whose queue is full misses the event.
func (hub *Hub) broadcast(key string, val []byte) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for _, sub := range hub.subscribers[key] {
		select {
		case sub.send <- val:
		default:
			log.Printf("[Hub] dropping event for %s: send queue full", key)
		}
	}
}

// Close drops every open connection; called on shutdown.
func (hub *Hub) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for key, subs := range hub.subscribers {
		for _, s := range subs {
			close(s.send)
			s.conn.Close()
		}
		delete(hub.subscribers, key)
	}
}

// GET /ws/booking streams the caller's booking events. Browsers cannot set
// headers on websocket requests, so the token may come as ?token=.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		t, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			utils.RespondWithMessage(w, http.StatusUnauthorized, "UnAuthorized access")
			return
		}
		token = t
	}
	email, err := h.auth.VerifyToken(token)
	if err != nil {
		utils.RespondWithMessage(w, http.StatusForbidden, "Forbidden access")
		return
	}
	key := utils.NormalizeEmail(email)

	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Live: upgrade for %s, err=%v", key, err)
		return
	}

	sub := h.hub.add(key, conn)
	go sub.writePump()
	defer func() {
		h.hub.remove(key, sub)
		conn.Close()
	}()

	for {
		// keeps the connection alive until the client disconnects
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
