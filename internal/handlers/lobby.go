package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pasur-go/internal/game/pasur"
	"pasur-go/internal/logging"
	"pasur-go/internal/models"

	"github.com/gin-gonic/gin"
)

// SeatRequest names a player. A non-empty Bot makes the seat server-played at
// that difficulty.
type SeatRequest struct {
	Name string `json:"name"`
	Bot  string `json:"bot,omitempty"`
}

type CreateMatchRequest struct {
	Name       string        `json:"name"`
	GoalPoints int64         `json:"goal_points,omitempty"`
	Players    []SeatRequest `json:"players,omitempty"`
}

type MatchResponse struct {
	Match *models.Match `json:"match"`
	Game  GameView      `json:"game"`
}

func botDifficulty(bot string) (*string, error) {
	bot = strings.TrimSpace(bot)
	if bot == "" {
		return nil, nil
	}
	switch pasur.BotDifficulty(bot) {
	case pasur.BotEasy, pasur.BotMedium:
		return &bot, nil
	}
	return nil, fmt.Errorf("%w: unknown bot difficulty %q", models.ErrInvalidPlayer, bot)
}

func (app *App) newPasurGame() (*pasur.Game, error) {
	g, ok := app.Registry.New(pasur.GameType)
	if !ok {
		return nil, fmt.Errorf("game type %q not registered", pasur.GameType)
	}
	pg, ok := g.(*pasur.Game)
	if !ok {
		return nil, fmt.Errorf("game type %q: unexpected engine %T", pasur.GameType, g)
	}
	if app.Source != nil {
		pg.SetSource(app.Source)
	}
	return pg, nil
}

// CreateMatch opens a match with its first, pending game and seats the
// initial players in order.
func CreateMatch(ctx context.Context, app *App, req CreateMatchRequest) (*MatchResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Pasur"
	}
	goal := req.GoalPoints
	if goal <= 0 {
		goal = app.GoalPoints
	}
	if len(req.Players) > pasur.MaxPlayers {
		return nil, models.ErrMatchFull
	}

	g, err := app.newPasurGame()
	if err != nil {
		return nil, err
	}

	tx, err := app.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	matchID, err := models.CreateMatchTx(ctx, tx, name, goal)
	if err != nil {
		return nil, err
	}
	for _, seat := range req.Players {
		difficulty, err := botDifficulty(seat.Bot)
		if err != nil {
			return nil, err
		}
		if _, err := models.AddMatchPlayerTx(ctx, tx, matchID, seat.Name, difficulty); err != nil {
			return nil, err
		}
		if _, err := g.AddPlayer(seat.Name); err != nil {
			return nil, err
		}
	}
	state, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}
	gameID, err := models.CreateGameTx(ctx, tx, matchID, string(state), g.Status)
	if err != nil {
		return nil, err
	}
	match, err := models.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	standings, err := models.CountPlayerPoints(ctx, tx, matchID, gameID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	logging.WithMatch(matchID).WithFields(logging.Fields{"name": name, "goal_points": goal, "players": len(req.Players)}).Info("match created")
	app.publishMatchList(ctx)
	return &MatchResponse{Match: match, Game: buildGameView(match, gameID, g, standings, "")}, nil
}

// JoinMatch seats a player in a joinable match. Joining again under the same
// name returns the current view without changing anything.
func JoinMatch(ctx context.Context, app *App, matchID int64, seat SeatRequest) (*MatchResponse, error) {
	difficulty, err := botDifficulty(seat.Bot)
	if err != nil {
		return nil, err
	}

	unlock := app.Games.Lock(matchID)
	defer unlock()

	tx, err := app.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := app.loadActionState(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	joined := s.seat(seat.Name) == nil
	if joined {
		if s.match.Status != models.MatchJoinable {
			return nil, models.ErrMatchNotJoinable
		}
		if _, err := models.AddMatchPlayerTx(ctx, tx, matchID, seat.Name, difficulty); err != nil {
			return nil, err
		}
		if _, err := s.game.AddPlayer(seat.Name); err != nil {
			return nil, err
		}
		if err := app.Store.WithTx(tx).Save(ctx, s.gameID, s.game.Snapshot()); err != nil {
			return nil, err
		}
		if err := models.InsertMoveTx(ctx, tx, models.GameMove{
			GameID:   s.gameID,
			Player:   optionalName(seat.Name),
			MoveType: models.MoveJoin,
			Message:  seat.Name + " joined the match",
		}); err != nil {
			return nil, err
		}
	}

	match, err := models.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	standings, err := models.CountPlayerPoints(ctx, tx, matchID, s.gameID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if joined {
		logging.WithMatch(matchID).WithField("player", seat.Name).Info("player joined")
		app.publish(ctx, app.matchEvent(match, s.gameID, s.game, standings, seat.Name+" joined the match"))
		app.publishMatchList(ctx)
	}
	return &MatchResponse{Match: match, Game: buildGameView(match, s.gameID, s.game, standings, seat.Name)}, nil
}

// GetMatchView returns the current game as seen by viewer. An empty viewer
// gets the public view.
func GetMatchView(ctx context.Context, app *App, matchID int64, viewer string) (*MatchResponse, error) {
	match, err := models.GetMatch(ctx, app.DB, matchID)
	if err != nil {
		return nil, err
	}
	row, err := models.GetLatestGame(ctx, app.DB, matchID)
	if err != nil {
		return nil, err
	}
	g, err := app.Store.Load(ctx, row.ID, app.engineOptions()...)
	if err != nil {
		return nil, err
	}
	if viewer != "" && g.Player(viewer) == nil {
		return nil, models.ErrPlayerNotInMatch
	}
	standings, err := models.CountPlayerPoints(ctx, app.DB, matchID, row.ID)
	if err != nil {
		return nil, err
	}
	return &MatchResponse{Match: match, Game: buildGameView(match, row.ID, g, standings, viewer)}, nil
}

func parseMatchID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return 0, false
	}
	return id, true
}

func parsePaging(c *gin.Context) (limit, offset int64, ok bool) {
	// Defaults mirror models.ListMatches so LIMIT 0 never yields an empty page.
	limit, offset = 50, 0
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
		limit = n
	}
	if v := strings.TrimSpace(c.Query("offset")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func ListMatchesHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := parsePaging(c)
		if !ok {
			return
		}
		matches, err := models.ListMatches(c.Request.Context(), app.DB, limit, offset)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if matches == nil {
			matches = []models.Match{}
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}

func CreateMatchHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMatchRequest
		// An empty body creates an unnamed match with the default goal.
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeAPIError(c, models.ErrInvalidJSON)
				return
			}
		}
		resp, err := CreateMatch(c.Request.Context(), app, req)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func JoinMatchHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := parseMatchID(c)
		if !ok {
			return
		}
		var req SeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		resp, err := JoinMatch(c.Request.Context(), app, matchID, req)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
