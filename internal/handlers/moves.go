package handlers

import (
	"net/http"
	"strconv"

	"pasur-go/internal/models"

	"github.com/gin-gonic/gin"
)

// MatchMovesHandler lists the action log of the current game, or of
// ?game_id= when it belongs to the match.
func MatchMovesHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := parseMatchID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		var row *models.Game
		var err error
		if v := c.Query("game_id"); v != "" {
			gameID, perr := strconv.ParseInt(v, 10, 64)
			if perr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
				return
			}
			row, err = models.GetGameByID(ctx, app.DB, gameID)
			if err == nil && row.MatchID != matchID {
				err = models.ErrNotFound
			}
		} else {
			row, err = models.GetLatestGame(ctx, app.DB, matchID)
		}
		if err != nil {
			writeAPIError(c, err)
			return
		}

		moves, err := models.ListMovesByGame(ctx, app.DB, row.ID, 200)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if moves == nil {
			moves = []models.GameMove{}
		}
		c.JSON(http.StatusOK, gin.H{"game_id": row.ID, "moves": moves})
	}
}
