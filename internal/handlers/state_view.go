package handlers

import (
	"pasur-go/internal/game/common"
	"pasur-go/internal/game/pasur"
	"pasur-go/internal/models"
)

type CardView struct {
	ID    int    `json:"card_id"`
	Label string `json:"label"`
}

func cardView(c *common.Card) CardView {
	return CardView{ID: c.ID, Label: c.String()}
}

func cardViews(cards []*common.Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardView(c))
	}
	return out
}

type PlayerSummary struct {
	Name          string  `json:"name"`
	InHand        int     `json:"in_hand"`
	Collected     int     `json:"collected"`
	Surs          int     `json:"surs"`
	IsBot         bool    `json:"is_bot"`
	BotDifficulty *string `json:"bot_difficulty,omitempty"`
}

// GameView is what clients see of a game. Hand is filled only for the viewer;
// everyone else's cards are reduced to counts.
type GameView struct {
	MatchID                int64                 `json:"match_id"`
	GameID                 int64                 `json:"game_id"`
	Status                 pasur.Status          `json:"status"`
	MatchStatus            models.MatchStatus    `json:"match_status"`
	Starter                *string               `json:"starter"`
	PlayerInTurn           *string               `json:"player_in_turn"`
	NoPlayerHasCardsInHand bool                  `json:"no_player_has_cards_on_hand"`
	DeckCount              int                   `json:"deck_count"`
	Board                  []CardView            `json:"board"`
	Players                []PlayerSummary       `json:"players"`
	Viewer                 string                `json:"viewer,omitempty"`
	Hand                   []CardView            `json:"hand,omitempty"`
	LastPlayedCard         *CardView             `json:"last_played_card"`
	LastCollectedCards     []CardView            `json:"last_collected_cards"`
	LastCollector          *string               `json:"last_collector"`
	Points                 []models.PlayerPoints `json:"points"`
}

func buildGameView(match *models.Match, gameID int64, g *pasur.Game, points []models.PlayerPoints, viewer string) GameView {
	v := GameView{
		MatchID:                match.ID,
		GameID:                 gameID,
		Status:                 g.Status,
		MatchStatus:            match.Status,
		NoPlayerHasCardsInHand: g.NoPlayerHasCardsInHand(),
		DeckCount:              g.Deck().CardCount(),
		Board:                  cardViews(g.Board().Cards()),
		LastCollectedCards:     cardViews(g.LastCollectedCards),
		Points:                 points,
	}
	if s := g.StartingPlayer(); s != nil {
		name := s.Identifier
		v.Starter = &name
	}
	if g.Status == pasur.StatusOngoing && !v.NoPlayerHasCardsInHand {
		name := g.PlayerInTurn().Identifier
		v.PlayerInTurn = &name
	}
	if g.LastPlayedCard != nil {
		cv := cardView(g.LastPlayedCard)
		v.LastPlayedCard = &cv
	}
	if g.LastCollector != nil {
		name := g.LastCollector.Identifier
		v.LastCollector = &name
	}

	surs := map[string]int{}
	for _, p := range g.Surs {
		surs[p.Identifier]++
	}
	seats := map[string]models.MatchPlayer{}
	for _, mp := range match.Players {
		seats[mp.Name] = mp
	}
	for _, p := range g.Players() {
		seat := seats[p.Identifier]
		v.Players = append(v.Players, PlayerSummary{
			Name:          p.Identifier,
			InHand:        p.InHandCount(),
			Collected:     p.CollectedCount(),
			Surs:          surs[p.Identifier],
			IsBot:         seat.IsBot,
			BotDifficulty: seat.BotDifficulty,
		})
		if viewer != "" && p.Identifier == viewer {
			v.Viewer = viewer
			v.Hand = cardViews(p.InHandCards())
		}
	}
	return v
}
