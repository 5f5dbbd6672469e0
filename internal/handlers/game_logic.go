package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pasur-go/internal/broadcast"
	"pasur-go/internal/game/common"
	"pasur-go/internal/game/pasur"
	"pasur-go/internal/logging"
	"pasur-go/internal/models"
	"pasur-go/internal/tracing"
)

// ActionRequest is one engine action on a match. Card and Collect accept the
// short notation ("QH", "10D") or a numeric card id.
type ActionRequest struct {
	Action  string   `json:"action"`
	Player  string   `json:"player"`
	Card    string   `json:"card,omitempty"`
	Collect []string `json:"collect,omitempty"`
}

type ActionResult struct {
	GameID  int64          `json:"game_id"`
	Message string         `json:"message"`
	Points  map[string]int `json:"points,omitempty"`
	Game    GameView       `json:"game"`
}

// actionState carries one action through its transaction.
type actionState struct {
	ctx    context.Context
	tx     *sql.Tx
	app    *App
	match  *models.Match
	gameID int64
	game   *pasur.Game

	messages []string
	moves    []models.GameMove
	points   map[string]int
}

func (s *actionState) record(m models.GameMove) {
	m.GameID = s.gameID
	s.moves = append(s.moves, m)
	s.messages = append(s.messages, m.Message)
}

// ApplyAction runs req against the match's current game under the match lock
// and a single transaction, then broadcasts the new public state. Nothing is
// persisted or broadcast when the action fails.
func ApplyAction(ctx context.Context, app *App, matchID int64, req ActionRequest) (*ActionResult, error) {
	ctx, span := tracing.StartActionSpan(ctx, matchID, req.Action, req.Player)
	defer span.End()

	res, ev, err := applyAction(ctx, app, matchID, req)
	if err != nil {
		tracing.RecordError(span, err)
		logging.WithMatch(matchID).WithError(err).WithFields(logging.Fields{"action": req.Action, "player": req.Player}).Debug("action rejected")
		return nil, err
	}
	logging.WithMatch(matchID).WithFields(logging.Fields{"action": req.Action, "player": req.Player, "game_id": res.GameID}).Info(res.Message)
	app.publish(ctx, ev)
	return res, nil
}

func applyAction(ctx context.Context, app *App, matchID int64, req ActionRequest) (*ActionResult, broadcast.Event, error) {
	unlock := app.Games.Lock(matchID)
	defer unlock()

	tx, err := app.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, broadcast.Event{}, err
	}
	defer tx.Rollback()

	s, err := app.loadActionState(ctx, tx, matchID)
	if err != nil {
		return nil, broadcast.Event{}, err
	}
	if s.match.Status == models.MatchFinished {
		return nil, broadcast.Event{}, models.ErrMatchFinished
	}

	switch req.Action {
	case models.MoveDeal:
		err = s.dealCards(req)
	case models.MovePlay:
		err = s.playCard(req)
	case models.MoveCount:
		err = s.countPoints()
	case models.MoveNextGame:
		err = s.nextGame()
	case models.MoveGiveCard:
		err = s.giveCard(req)
	default:
		err = fmt.Errorf("%w: %q", models.ErrUnknownAction, req.Action)
	}
	if err != nil {
		return nil, broadcast.Event{}, err
	}
	if err := s.playBots(); err != nil {
		return nil, broadcast.Event{}, err
	}

	if err := app.Store.WithTx(tx).Save(ctx, s.gameID, s.game.Snapshot()); err != nil {
		return nil, broadcast.Event{}, err
	}
	for _, m := range s.moves {
		if err := models.InsertMoveTx(ctx, tx, m); err != nil {
			return nil, broadcast.Event{}, err
		}
	}

	// Reload so the view reflects scores and status written above.
	match, err := models.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, broadcast.Event{}, err
	}
	standings, err := models.CountPlayerPoints(ctx, tx, matchID, s.gameID)
	if err != nil {
		return nil, broadcast.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, broadcast.Event{}, err
	}

	message := strings.Join(s.messages, ". ")
	res := &ActionResult{
		GameID:  s.gameID,
		Message: message,
		Points:  s.points,
		Game:    buildGameView(match, s.gameID, s.game, standings, req.Player),
	}
	return res, app.matchEvent(match, s.gameID, s.game, standings, message), nil
}

func (app *App) loadActionState(ctx context.Context, tx *sql.Tx, matchID int64) (*actionState, error) {
	match, err := models.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	row, err := models.GetLatestGame(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	g, err := app.Store.WithTx(tx).Load(ctx, row.ID, app.engineOptions()...)
	if err != nil {
		return nil, err
	}
	return &actionState{ctx: ctx, tx: tx, app: app, match: match, gameID: row.ID, game: g}, nil
}

func (app *App) engineOptions() []pasur.Option {
	if app.Source == nil {
		return nil
	}
	return []pasur.Option{pasur.WithSource(app.Source)}
}

func (s *actionState) seat(name string) *models.MatchPlayer {
	for i := range s.match.Players {
		if s.match.Players[i].Name == name {
			return &s.match.Players[i]
		}
	}
	return nil
}

// actingPlayer resolves a human player of this game.
func (s *actionState) actingPlayer(name string) (*pasur.Holder, error) {
	seat := s.seat(name)
	p := s.game.Player(name)
	if seat == nil || p == nil {
		return nil, models.ErrPlayerNotInMatch
	}
	if seat.IsBot {
		return nil, fmt.Errorf("%w: %s is played by the server", models.ErrInvalidPlayer, name)
	}
	return p, nil
}

func (s *actionState) dealCards(req ActionRequest) error {
	if err := s.game.DealCards(); err != nil {
		return err
	}
	var msg string
	switch s.game.Status {
	case pasur.StatusCancelled:
		msg = "Game cancelled, a second knight was dealt to the board"
	case pasur.StatusFinished:
		msg = "No cards left in the deck, count the points"
	default:
		msg = "Cards dealt"
	}
	s.record(models.GameMove{Player: optionalName(req.Player), MoveType: models.MoveDeal, Message: msg})
	return nil
}

func (s *actionState) playCard(req ActionRequest) error {
	p, err := s.actingPlayer(req.Player)
	if err != nil {
		return err
	}
	card, err := parseCardRef(req.Card)
	if err != nil {
		return err
	}
	collect := make([]*common.Card, 0, len(req.Collect))
	for _, ref := range req.Collect {
		c, err := parseCardRef(ref)
		if err != nil {
			return err
		}
		collect = append(collect, c)
	}
	if err := s.game.PlayCard(p, card, collect); err != nil {
		return err
	}
	s.recordPlay(p)
	return nil
}

func (s *actionState) recordPlay(p *pasur.Holder) {
	played := s.game.LastPlayedCard
	collected := make([]int, 0, len(s.game.LastCollectedCards))
	for _, c := range s.game.LastCollectedCards {
		collected = append(collected, c.ID)
	}
	id := played.ID
	s.record(models.GameMove{
		Player:         optionalName(p.Identifier),
		MoveType:       models.MovePlay,
		CardPlayed:     &id,
		CardsCollected: collected,
		Message:        playMessage(p.Identifier, played, s.game.LastCollectedCards),
	})
}

// playBots lets server-played seats act while one of them is in turn.
func (s *actionState) playBots() error {
	for s.game.Status == pasur.StatusOngoing && !s.game.NoPlayerHasCardsInHand() {
		p := s.game.PlayerInTurn()
		seat := s.seat(p.Identifier)
		if seat == nil || !seat.IsBot {
			return nil
		}
		difficulty := pasur.BotEasy
		if seat.BotDifficulty != nil {
			difficulty = pasur.BotDifficulty(*seat.BotDifficulty)
		}
		m, err := s.game.ChooseMove(p, difficulty)
		if err != nil {
			return err
		}
		if err := s.game.PlayCard(p, m.Card, m.Collect); err != nil {
			return fmt.Errorf("bot %s: %w", p.Identifier, err)
		}
		s.recordPlay(p)
	}
	return nil
}

func (s *actionState) giveCard(req ActionRequest) error {
	if !s.app.AllowDevActions {
		return fmt.Errorf("%w: %q", models.ErrUnknownAction, req.Action)
	}
	p := s.game.Player(req.Player)
	if p == nil {
		return models.ErrPlayerNotInMatch
	}
	c, err := s.game.GiveCardFromDeck(p)
	if err != nil {
		return err
	}
	id := c.ID
	s.record(models.GameMove{
		Player:     optionalName(p.Identifier),
		MoveType:   models.MoveGiveCard,
		CardPlayed: &id,
		Message:    fmt.Sprintf("%s was given %s", p.Identifier, c),
	})
	return nil
}

func (app *App) matchEvent(match *models.Match, gameID int64, g *pasur.Game, standings []models.PlayerPoints, message string) broadcast.Event {
	ev := broadcast.Event{MatchID: match.ID, GameID: gameID, Message: message}
	if g == nil {
		return ev
	}
	state, err := json.Marshal(buildGameView(match, gameID, g, standings, ""))
	if err != nil {
		logging.WithMatch(match.ID).WithError(err).Error("encode public view")
		return ev
	}
	ev.State = state
	return ev
}

func playMessage(player string, played *common.Card, collected []*common.Card) string {
	if len(collected) == 0 {
		return fmt.Sprintf("%s played card %s", player, played)
	}
	labels := make([]string, 0, len(collected))
	for _, c := range collected {
		labels = append(labels, c.String())
	}
	return fmt.Sprintf("%s played card %s and picked up %s", player, played, strings.Join(labels, ", "))
}

// parseCardRef accepts "QH" style notation or a numeric id.
func parseCardRef(ref string) (*common.Card, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		return common.NewCard(n)
	}
	id, err := common.ParseCard(ref)
	if err != nil {
		return nil, err
	}
	return common.NewCard(id)
}

func optionalName(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}
