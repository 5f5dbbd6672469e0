package pasur

import (
	"encoding/json"
	"errors"
	"fmt"

	"pasur-go/internal/game/common"
)

// CardEntry records one card and who holds it.
type CardEntry struct {
	CardID     int    `json:"card_id"`
	Collected  bool   `json:"collected"`
	Identifier string `json:"identifier"`
}

// Snapshot is the persisted and broadcast form of a Game.
type Snapshot struct {
	Players            []string    `json:"players"`
	Cards              []CardEntry `json:"cards"`
	Surs               []string    `json:"surs"`
	LastCollector      *string     `json:"last_collector"`
	LastPlayedCard     *int        `json:"last_played_card"`
	LastCollectedCards []int       `json:"last_collected_cards"`
	Status             Status      `json:"status"`
	Starter            *string     `json:"starter"`
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Players:            []string{},
		Cards:              make([]CardEntry, 0, g.holders.TotalCards()),
		Surs:               make([]string, 0, len(g.Surs)),
		LastCollectedCards: make([]int, 0, len(g.LastCollectedCards)),
		Status:             g.Status,
	}
	for _, h := range g.holders {
		for _, c := range h.cards {
			s.Cards = append(s.Cards, CardEntry{CardID: c.ID, Collected: c.Collected, Identifier: h.Identifier})
		}
	}
	for _, p := range g.Players() {
		s.Players = append(s.Players, p.Identifier)
	}
	for _, p := range g.Surs {
		s.Surs = append(s.Surs, p.Identifier)
	}
	if g.LastCollector != nil {
		name := g.LastCollector.Identifier
		s.LastCollector = &name
	}
	if g.LastPlayedCard != nil {
		id := g.LastPlayedCard.ID
		s.LastPlayedCard = &id
	}
	for _, c := range g.LastCollectedCards {
		s.LastCollectedCards = append(s.LastCollectedCards, c.ID)
	}
	if g.Starter != nil {
		name := g.Starter.Identifier
		s.Starter = &name
	}
	return s
}

func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

// Load rebuilds a game from a snapshot: deck and board first, then players in
// registration order, then every card into the holder it names.
func Load(s Snapshot, opts ...Option) (*Game, error) {
	holders := Holders{NewDeck(), NewBoard()}
	for _, name := range s.Players {
		if name == "" || name == DeckIdentifier || name == BoardIdentifier {
			return nil, illegal("invalid player name %q", name)
		}
		if holders.Get(name) == nil {
			holders = append(holders, NewPlayer(name))
		}
	}

	for _, e := range s.Cards {
		card, err := common.NewCard(e.CardID)
		if err != nil {
			return nil, err
		}
		if owner := holders.Owner(e.CardID); owner != nil {
			return nil, fmt.Errorf("%w: card %d held by %s and %s", ErrDuplicateCard, e.CardID, owner.Identifier, e.Identifier)
		}
		h := holders.Get(e.Identifier)
		if h == nil {
			return nil, illegal("card %d held by unknown holder %q", e.CardID, e.Identifier)
		}
		card.Collected = e.Collected
		if err := h.AddCard(card); err != nil {
			return nil, err
		}
	}
	// A stored game either has not touched the deck yet or places all of it.
	if n := holders.TotalCards(); n != 0 && n != common.DeckSize {
		return nil, fmt.Errorf("%w: %d of %d cards placed", ErrInvalidSnapshot, n, common.DeckSize)
	}

	g, err := New(holders, opts...)
	if err != nil {
		return nil, err
	}
	if s.Status != "" {
		if !s.Status.Valid() {
			return nil, illegal("unknown status %q", s.Status)
		}
		g.Status = s.Status
	}

	if s.Starter != nil {
		if g.Starter = g.Player(*s.Starter); g.Starter == nil {
			return nil, illegal("starter %q is not a player", *s.Starter)
		}
	}
	for _, name := range s.Surs {
		p := g.Player(name)
		if p == nil {
			return nil, illegal("sur by unknown player %q", name)
		}
		g.Surs = append(g.Surs, p)
	}
	if s.LastCollector != nil {
		if g.LastCollector = g.Player(*s.LastCollector); g.LastCollector == nil {
			return nil, illegal("last collector %q is not a player", *s.LastCollector)
		}
	}
	if s.LastPlayedCard != nil {
		if g.LastPlayedCard = holders.Card(*s.LastPlayedCard); g.LastPlayedCard == nil {
			return nil, illegal("last played card %d not found", *s.LastPlayedCard)
		}
	}
	for _, id := range s.LastCollectedCards {
		c := holders.Card(id)
		if c == nil {
			return nil, illegal("last collected card %d not found", id)
		}
		g.LastCollectedCards = append(g.LastCollectedCards, c)
	}
	return g, nil
}

// LoadJSON decodes a snapshot document and loads it.
func LoadJSON(data []byte, opts ...Option) (*Game, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrInvalidSnapshot, err)
	}
	return Load(s, opts...)
}
