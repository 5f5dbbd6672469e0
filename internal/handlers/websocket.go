package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"pasur-go/internal/broadcast"
	"pasur-go/internal/logging"
	ws "pasur-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		if cfgDevAllowAll() {
			return true
		}
		if cfgIsDev() {
			return isLocalhostOrigin(origin) || isAllowedOrigin(origin)
		}
		return isAllowedOrigin(origin)
	},
}

// set by config at startup
var originMu sync.RWMutex
var allowedOrigins = map[string]bool{}
var devMode = false
var devAllowAll = false

func SetWebSocketOriginPolicy(isDev bool, allowAllDev bool, origins []string) {
	originMu.Lock()
	defer originMu.Unlock()
	devMode = isDev
	devAllowAll = allowAllDev
	allowedOrigins = map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins[o] = true
		}
	}
}

func cfgIsDev() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode
}
func cfgDevAllowAll() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode && devAllowAll
}
func isAllowedOrigin(origin string) bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return allowedOrigins[origin]
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// matchIDFromRoom extracts the id of a "match:<id>" room.
func matchIDFromRoom(room string) (int64, bool) {
	rest, ok := strings.CutPrefix(room, "match:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil && id > 0
}

// WebSocketHandler upgrades the connection and subscribes the client to
// ?room= (default: the match list room). Clients in a match room that name a
// ?player= announce themselves to the other subscribers.
func WebSocketHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := strings.TrimSpace(c.Query("room"))
		if room == "" {
			room = ws.DefaultRoom
		}
		player := strings.TrimSpace(c.Query("player"))

		// Preconditions before the upgrade so we can still answer over HTTP.
		if app.Hub == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
			return
		}
		hub, ok := app.Hub()
		if !ok || hub == nil {
			logging.L.WithField("room", room).Error("websocket hub unavailable")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.L.WithError(err).WithFields(logging.Fields{
				"remote": c.ClientIP(),
				"origin": c.Request.Header.Get("Origin"),
			}).Warn("websocket upgrade failed")
			return
		}

		client := ws.NewClient(conn, hub, room, player)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump(func(msg []byte) {
			handleWSMessage(app, hub, client, msg)
		})

		sendDirect(client, "connected", map[string]any{
			"client_id": client.ID,
			"room":      room,
			"player":    player,
		})

		if matchID, ok := matchIDFromRoom(room); ok && player != "" {
			app.publish(c.Request.Context(), broadcast.Event{MatchID: matchID, Message: "Player " + player + " joined"})
		}
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func handleWSMessage(app *App, hub *ws.Hub, client *ws.Client, msg []byte) {
	var in inboundMessage
	if err := json.Unmarshal(msg, &in); err != nil {
		sendDirect(client, "error", map[string]any{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch in.Type {
	case "join_room":
		var p struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || strings.TrimSpace(p.Room) == "" {
			sendDirect(client, "error", map[string]any{"error": "invalid room"})
			return
		}
		room := strings.TrimSpace(p.Room)
		hub.Join(client, room)
		sendDirect(client, "joined_room", map[string]any{"room": room})
	case "action":
		var p struct {
			MatchID int64         `json:"match_id"`
			Action  ActionRequest `json:"action"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.MatchID <= 0 {
			sendDirect(client, "error", map[string]any{"error": "invalid action payload"})
			return
		}
		if p.Action.Player == "" {
			p.Action.Player = client.Player
		}
		res, err := ApplyAction(ctx, app, p.MatchID, p.Action)
		if err != nil {
			sendError(client, err)
			return
		}
		// Everyone in the room, this client included, also gets the public game_update.
		sendDirect(client, "action_ok", res)
	case "view":
		var p struct {
			MatchID int64 `json:"match_id"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.MatchID <= 0 {
			sendDirect(client, "error", map[string]any{"error": "invalid view payload"})
			return
		}
		resp, err := GetMatchView(ctx, app, p.MatchID, client.Player)
		if err != nil {
			sendError(client, err)
			return
		}
		sendDirect(client, "view", resp)
	default:
		sendDirect(client, "error", map[string]any{"error": "unknown message type"})
	}
}

func sendError(client *ws.Client, err error) {
	status, body := classifyError(err)
	body["status"] = status
	sendDirect(client, "error", body)
}

// sendDirect answers one client. Delivery goes through the hub, which owns
// the client's Send channel.
func sendDirect(c *ws.Client, typ string, payload any) {
	c.Hub.SendTo(c, typ, payload)
}
