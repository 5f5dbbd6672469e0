// Package broadcast fans match updates out to websocket subscribers, either
// straight into the local hub or through redis so every server instance
// relays them to its own clients.
package broadcast

import (
	"context"
	"encoding/json"
	"strconv"

	ws "pasur-go/pkg/websocket"
)

const (
	// MessageType is the websocket message type of every match update.
	MessageType = "game_update"
	// ListMessageType carries the match list to clients in the lobby room.
	ListMessageType = "matches_update"
)

// Event is published after every successful match mutation. MatchID 0 marks
// a match list update, whose State is the list itself.
type Event struct {
	MatchID int64           `json:"match_id"`
	GameID  int64           `json:"game_id"`
	Message string          `json:"message"`
	State   json.RawMessage `json:"state,omitempty"`
}

type Broadcaster interface {
	Publish(ctx context.Context, ev Event) error
}

// MatchListEvent wraps an encoded match list.
func MatchListEvent(list json.RawMessage) Event {
	return Event{State: list}
}

// Room is the hub room subscribed to a match.
func Room(matchID int64) string {
	return "match:" + strconv.FormatInt(matchID, 10)
}

// HubBroadcaster delivers events to the hub of this process.
type HubBroadcaster struct {
	hub func() (*ws.Hub, bool)
}

func NewHubBroadcaster(hub func() (*ws.Hub, bool)) *HubBroadcaster {
	return &HubBroadcaster{hub: hub}
}

func (b *HubBroadcaster) Publish(_ context.Context, ev Event) error {
	if b.hub == nil {
		return nil
	}
	hub, ok := b.hub()
	if !ok {
		return nil
	}
	if ev.MatchID == 0 {
		hub.Broadcast(ws.DefaultRoom, ListMessageType, ev.State)
		return nil
	}
	hub.Broadcast(Room(ev.MatchID), MessageType, ev)
	return nil
}

// Nop drops every event. Used by the simulate command and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
