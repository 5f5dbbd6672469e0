package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"pasur-go/internal/game/common"
	"pasur-go/internal/game/pasur"
	"pasur-go/internal/logging"
	"pasur-go/internal/models"

	"github.com/gin-gonic/gin"
)

func writeAPIError(c *gin.Context, err error) {
	status, body := classifyError(err)
	if status == http.StatusInternalServerError && err != nil {
		logging.L.WithError(err).WithField("path", c.FullPath()).Error("internal error")
	}
	c.AbortWithStatusJSON(status, body)
}

// classifyError maps known errors to a status and a client-safe body. The
// websocket handler reuses it for error frames.
func classifyError(err error) (int, gin.H) {
	if err == nil {
		return http.StatusInternalServerError, gin.H{"error": "internal server error"}
	}

	if errors.Is(err, models.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, gin.H{"error": "not found"}
	}

	// Rule violations carry a reason written by the engine; safe to echo.
	var illegal *pasur.IllegalActionError
	if errors.As(err, &illegal) {
		return http.StatusConflict, gin.H{"error": "illegal action", "reason": illegal.Reason}
	}

	switch {
	case errors.Is(err, models.ErrInvalidJSON):
		return http.StatusBadRequest, gin.H{"error": "invalid json"}
	case errors.Is(err, common.ErrInvalidCard):
		return http.StatusBadRequest, gin.H{"error": "invalid card"}
	case errors.Is(err, models.ErrInvalidPlayer):
		return http.StatusBadRequest, gin.H{"error": "invalid player"}
	case errors.Is(err, models.ErrUnknownAction):
		return http.StatusBadRequest, gin.H{"error": "unknown action"}
	case errors.Is(err, models.ErrPlayerNotInMatch):
		return http.StatusForbidden, gin.H{"error": "player not in match"}
	case errors.Is(err, models.ErrMatchFull):
		return http.StatusConflict, gin.H{"error": "match full"}
	case errors.Is(err, models.ErrMatchNotJoinable):
		return http.StatusConflict, gin.H{"error": "match not joinable"}
	case errors.Is(err, models.ErrMatchFinished):
		return http.StatusConflict, gin.H{"error": "match finished"}
	case errors.Is(err, models.ErrScoresAlreadyRecorded):
		return http.StatusConflict, gin.H{"error": "points already counted"}
	case errors.Is(err, pasur.ErrEmptyDeck):
		return http.StatusConflict, gin.H{"error": "deck is empty"}
	case errors.Is(err, models.ErrGameStateMissing), errors.Is(err, pasur.ErrInvalidSnapshot):
		logging.L.WithError(err).Error("stored game state unusable")
		return http.StatusConflict, gin.H{"error": "game state unavailable"}
	}

	// ErrNotOwned and ErrDuplicateCard land here: they mean a broken invariant.
	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}
