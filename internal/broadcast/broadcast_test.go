package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	ws "pasur-go/pkg/websocket"
)

type recorder struct {
	events []Event
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestChannelRoundTrip(t *testing.T) {
	tests := []struct {
		channel string
		want    int64
		wantErr bool
	}{
		{Channel(42), 42, false},
		{"pasur:match:x", 0, true},
		{"other:match:1", 0, true},
	}
	for _, tt := range tests {
		got, err := matchIDFromChannel(tt.channel)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("matchIDFromChannel(%q) = %d, %v", tt.channel, got, err)
		}
	}
	if Room(42) != "match:42" {
		t.Errorf("Room(42) = %q", Room(42))
	}
}

func TestRelayForward(t *testing.T) {
	rec := &recorder{}
	relay := NewRelay(nil, rec)
	payload, _ := json.Marshal(Event{GameID: 3, Message: "Cards dealt", State: json.RawMessage(`{"status":"ongoing"}`)})

	if err := relay.forward(context.Background(), Channel(9), string(payload)); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("got %d events", len(rec.events))
	}
	ev := rec.events[0]
	if ev.MatchID != 9 || ev.GameID != 3 || ev.Message != "Cards dealt" || string(ev.State) != `{"status":"ongoing"}` {
		t.Fatalf("event = %+v", ev)
	}
	if err := relay.forward(context.Background(), Channel(9), "{"); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestHubBroadcasterDeliversToMatchRoom(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &ws.Client{ID: "c1", Hub: hub, Room: Room(5), Send: make(chan []byte, 1)}
	hub.Register(c)

	b := NewHubBroadcaster(ws.NewHubRef(hub).Get)
	if err := b.Publish(context.Background(), Event{MatchID: 5, GameID: 1, Message: "Player joined"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case data := <-c.Send:
		var env struct {
			Type    string `json:"type"`
			Payload Event  `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type != MessageType || env.Payload.Message != "Player joined" {
			t.Fatalf("envelope = %+v", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message delivered")
	}
}

func TestHubBroadcasterSendsMatchListToLobby(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	lobby := &ws.Client{ID: "lobby", Hub: hub, Room: ws.DefaultRoom, Send: make(chan []byte, 1)}
	hub.Register(lobby)

	b := NewHubBroadcaster(ws.NewHubRef(hub).Get)
	list := json.RawMessage(`{"matches":[{"id":7}]}`)
	if err := b.Publish(context.Background(), MatchListEvent(list)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case data := <-lobby.Send:
		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type != ListMessageType || string(env.Payload) != string(list) {
			t.Fatalf("envelope = %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message delivered")
	}

	// The list also travels over redis as match id 0.
	rec := &recorder{}
	payload, _ := json.Marshal(MatchListEvent(list))
	if err := NewRelay(nil, rec).forward(context.Background(), Channel(0), string(payload)); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].MatchID != 0 || string(rec.events[0].State) != string(list) {
		t.Fatalf("relayed = %+v", rec.events)
	}
}
