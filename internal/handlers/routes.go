package handlers

import (
	"database/sql"
	"net/http"

	"pasur-go/internal/broadcast"
	"pasur-go/internal/config"
	"pasur-go/internal/game"
	"pasur-go/internal/game/common"
	"pasur-go/internal/game/pasur"
	"pasur-go/internal/models"
	ws "pasur-go/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// App holds what the handlers share. Build it with NewApp.
type App struct {
	DB          *sql.DB
	Store       *models.SnapshotStore
	Games       *GameManager
	Registry    *game.Registry
	Broadcaster broadcast.Broadcaster
	// Hub is the local websocket hub; nil disables /ws.
	Hub func() (*ws.Hub, bool)

	GoalPoints      int64
	AllowDevActions bool
	// Source overrides card draws, for tests and replays.
	Source common.Source
}

func NewApp(db *sql.DB, bc broadcast.Broadcaster, hub func() (*ws.Hub, bool), cfg config.Config) *App {
	if bc == nil {
		bc = broadcast.Nop{}
	}
	return &App{
		DB:              db,
		Store:           models.NewSnapshotStore(db),
		Games:           NewGameManager(),
		Registry:        game.DefaultRegistry(),
		Broadcaster:     bc,
		Hub:             hub,
		GoalPoints:      int64(cfg.GoalPoints),
		AllowDevActions: cfg.IsDevelopment(),
	}
}

func RegisterRoutes(r gin.IRouter, app *App) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "game_types": app.Registry.Types(), "max_players": pasur.MaxPlayers})
	})
	r.GET("/ws", WebSocketHandler(app))

	api := r.Group("/api")
	api.GET("/matches", ListMatchesHandler(app))
	api.POST("/matches", CreateMatchHandler(app))
	api.GET("/matches/:id", GetMatchHandler(app))
	api.POST("/matches/:id/join", JoinMatchHandler(app))
	api.POST("/matches/:id/actions", ActionHandler(app))
	api.GET("/matches/:id/moves", MatchMovesHandler(app))
	api.GET("/matches/:id/points", PointsHandler(app))
}
