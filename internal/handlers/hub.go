package handlers

import (
	"context"
	"encoding/json"

	"pasur-go/internal/broadcast"
	"pasur-go/internal/logging"
	"pasur-go/internal/models"

	"github.com/gin-gonic/gin"
)

// matchListLimit bounds the list pushed to the lobby room.
const matchListLimit = 50

// publish hands ev to the broadcaster. Delivery is best effort: the action
// has already been committed.
func (app *App) publish(ctx context.Context, ev broadcast.Event) {
	if app.Broadcaster == nil {
		return
	}
	if err := app.Broadcaster.Publish(ctx, ev); err != nil {
		logging.WithMatch(ev.MatchID).WithError(err).Warn("broadcast failed")
	}
}

// publishMatchList pushes the first page of matches to the lobby room after
// a match was created or gained a player.
func (app *App) publishMatchList(ctx context.Context) {
	if app.Broadcaster == nil {
		return
	}
	matches, err := models.ListMatches(ctx, app.DB, matchListLimit, 0)
	if err != nil {
		logging.L.WithError(err).Warn("match list broadcast failed")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	list, err := json.Marshal(gin.H{"matches": matches})
	if err != nil {
		logging.L.WithError(err).Warn("match list broadcast failed")
		return
	}
	app.publish(ctx, broadcast.MatchListEvent(list))
}
