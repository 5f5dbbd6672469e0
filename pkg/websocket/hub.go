package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"pasur-go/internal/logging"
)

// DefaultRoom receives match list updates. Clients that name no room land here.
const DefaultRoom = "matches"

// Hub manages websocket clients and room-based broadcasts. All room state is
// owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan joinReq
	broadcast  chan Broadcast
	direct     chan directReq
	count      chan countReq

	done     chan struct{}
	stopOnce sync.Once

	rooms map[string]map[*Client]bool
}

type joinReq struct {
	Client *Client
	Room   string
}

type directReq struct {
	Client  *Client
	Type    string
	Payload any
}

type countReq struct {
	Room  string
	Reply chan int
}

type Broadcast struct {
	Room    string
	Type    string
	Payload any
}

// Envelope is the wire form of every message sent to clients.
type Envelope struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinReq),
		broadcast:  make(chan Broadcast, 256),
		direct:     make(chan directReq),
		count:      make(chan countReq),
		done:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
	}
}

// Run processes hub events until Stop is called. Remaining clients are
// closed on exit.
func (h *Hub) Run() {
	defer h.closeAll()
	for {
		select {
		case <-h.done:
			return
		case c := <-h.register:
			h.moveClientToRoom(c, c.Room)
		case c := <-h.unregister:
			h.removeClient(c)
		case jr := <-h.join:
			h.moveClientToRoom(jr.Client, jr.Room)
		case b := <-h.broadcast:
			h.broadcastToRoom(b.Room, b.Type, b.Payload)
		case d := <-h.direct:
			h.sendToClient(d)
		case req := <-h.count:
			req.Reply <- len(h.rooms[req.Room])
		}
	}
}

// Stop ends Run. Calls made after Stop are dropped instead of blocking.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Join(c *Client, room string) {
	select {
	case h.join <- joinReq{Client: c, Room: room}:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(room, typ string, payload any) {
	select {
	case h.broadcast <- Broadcast{Room: room, Type: typ, Payload: payload}:
	case <-h.done:
	}
}

// SendTo queues a message for one client. Only the Run goroutine writes to or
// closes a client's Send channel, so a client dropped in the meantime just
// loses the message.
func (h *Hub) SendTo(c *Client, typ string, payload any) {
	select {
	case h.direct <- directReq{Client: c, Type: typ, Payload: payload}:
	case <-h.done:
	}
}

// ClientCount reports how many clients are in room, or 0 once stopped.
func (h *Hub) ClientCount(room string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countReq{Room: room, Reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) detach(c *Client) {
	if c.Room != "" && h.rooms[c.Room] != nil {
		delete(h.rooms[c.Room], c)
		if len(h.rooms[c.Room]) == 0 {
			delete(h.rooms, c.Room)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	h.detach(c)
	c.closeSend()
}

func (h *Hub) moveClientToRoom(c *Client, room string) {
	if c == nil {
		return
	}
	if room == "" {
		room = DefaultRoom
	}
	h.detach(c)
	c.Room = room
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]bool{}
	}
	h.rooms[room][c] = true
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// deliver hands data to c, dropping c when its buffer is full.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		// Slow or dead client.
		logging.L.WithFields(logging.Fields{"room": c.Room, "client": c.ID}).Warn("ws client dropped")
		h.removeClient(c)
	}
}

func (h *Hub) broadcastToRoom(room, typ string, payload any) {
	clients := h.rooms[room]
	if len(clients) == 0 {
		return
	}
	data, err := encode(typ, payload)
	if err != nil {
		logging.L.WithError(err).WithFields(logging.Fields{"room": room, "type": typ}).Error("ws broadcast marshal")
		return
	}
	for c := range clients {
		h.deliver(c, data)
	}
}

func (h *Hub) sendToClient(d directReq) {
	c := d.Client
	if c == nil || !h.rooms[c.Room][c] {
		return
	}
	data, err := encode(d.Type, d.Payload)
	if err != nil {
		logging.L.WithError(err).WithFields(logging.Fields{"client": c.ID, "type": d.Type}).Error("ws direct marshal")
		return
	}
	h.deliver(c, data)
}

func (h *Hub) closeAll() {
	for room, clients := range h.rooms {
		for c := range clients {
			c.closeSend()
		}
		delete(h.rooms, room)
	}
}
