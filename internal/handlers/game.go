package handlers

import (
	"net/http"
	"strings"

	"pasur-go/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMatchHandler returns the current game. ?player= adds that player's hand.
func GetMatchHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := parseMatchID(c)
		if !ok {
			return
		}
		resp, err := GetMatchView(c.Request.Context(), app, matchID, strings.TrimSpace(c.Query("player")))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func ActionHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := parseMatchID(c)
		if !ok {
			return
		}
		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		res, err := ApplyAction(c.Request.Context(), app, matchID, req)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func PointsHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := parseMatchID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		match, err := models.GetMatch(ctx, app.DB, matchID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		row, err := models.GetLatestGame(ctx, app.DB, matchID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		standings, err := models.CountPlayerPoints(ctx, app.DB, matchID, row.ID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		games, err := models.ListGamesByMatch(ctx, app.DB, matchID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"games":        games,
			"match_id":     matchID,
			"game_id":      row.ID,
			"goal_points":  match.GoalPoints,
			"match_status": match.Status,
			"points":       standings,
		})
	}
}
