package pasur

import (
	"pasur-go/internal/game/common"
)

// GameType is the registry key for Pasur.
const GameType = "pasur"

type Status string

const (
	StatusPending   Status = "pending"
	StatusOngoing   Status = "ongoing"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

const (
	MinPlayers   = 2
	MaxPlayers   = 4
	CardsPerDeal = 4
)

// Game is one hand of Pasur. It performs no locking: callers serialize access
// per game instance.
type Game struct {
	holders Holders
	src     common.Source

	Status             Status
	Starter            *Holder
	Surs               []*Holder
	LastCollector      *Holder
	LastPlayedCard     *common.Card
	LastCollectedCards []*common.Card
}

type Option func(*Game)

// WithSource sets the random source used for every card draw.
func WithSource(src common.Source) Option {
	return func(g *Game) { g.src = src }
}

// New builds a game around an existing set of holders. A deck and a board
// must both be present.
func New(holders Holders, opts ...Option) (*Game, error) {
	if holders.Deck() == nil || holders.Board() == nil {
		return nil, illegal("there has to be a deck and a board in the holder set")
	}
	g := &Game{holders: holders, Status: StatusPending}
	for _, o := range opts {
		o(g)
	}
	if g.src == nil {
		g.src = common.NewCryptoSource()
	}
	return g, nil
}

// NewGame returns a pending game with a full deck, an empty board and no players.
func NewGame(opts ...Option) *Game {
	g, _ := New(Holders{NewFreshDeck(), NewBoard()}, opts...)
	return g
}

func (g *Game) Type() string { return GameType }

func (g *Game) SetSource(src common.Source) { g.src = src }

func (g *Game) Holders() Holders { return append(Holders(nil), g.holders...) }

func (g *Game) Deck() *Holder  { return g.holders.Deck() }
func (g *Game) Board() *Holder { return g.holders.Board() }

func (g *Game) Players() []*Holder { return g.holders.Players() }

func (g *Game) Player(name string) *Holder {
	if h := g.holders.Get(name); h != nil && h.Kind == KindPlayer {
		return h
	}
	return nil
}

func (g *Game) isPlayer(h *Holder) bool {
	return h != nil && h.Kind == KindPlayer && g.holders.Get(h.Identifier) == h
}

// AddPlayer registers a player. Adding an existing player is a no-op; new
// players can only join before the first deal.
func (g *Game) AddPlayer(name string) (*Holder, error) {
	if name == "" || name == DeckIdentifier || name == BoardIdentifier {
		return nil, illegal("invalid player name %q", name)
	}
	if h := g.holders.Get(name); h != nil {
		if h.Kind != KindPlayer {
			return nil, illegal("invalid player name %q", name)
		}
		return h, nil
	}
	if g.Status != StatusPending {
		return nil, illegal("players can only join before cards are dealt")
	}
	p := NewPlayer(name)
	g.holders = append(g.holders, p)
	return p, nil
}

// StartingPlayer is the starter, or the first registered player when unset.
func (g *Game) StartingPlayer() *Holder {
	if g.isPlayer(g.Starter) {
		return g.Starter
	}
	players := g.Players()
	if len(players) == 0 {
		return nil
	}
	return players[0]
}

// PlayersInPlayOrder starts at the starter and wraps around in registration order.
func (g *Game) PlayersInPlayOrder() []*Holder {
	starter := g.StartingPlayer()
	if starter == nil {
		return nil
	}
	players := g.Players()
	idx := 0
	for i, p := range players {
		if p == starter {
			idx = i
			break
		}
	}
	order := make([]*Holder, 0, len(players))
	order = append(order, starter)
	order = append(order, players[idx+1:]...)
	order = append(order, players[:idx]...)
	return order
}

// PlayerInTurn is derived from hand sizes rather than stored: everyone gets
// the same number of cards per deal and plays in rotation, so the first
// player after the starter holding more cards than the starter is behind and
// must act. When nobody is behind, the starter acts.
func (g *Game) PlayerInTurn() *Holder {
	order := g.PlayersInPlayOrder()
	if len(order) == 0 {
		return nil
	}
	starterHand := order[0].InHandCount()
	for _, p := range order[1:] {
		if p.InHandCount() > starterHand {
			return p
		}
	}
	return order[0]
}

func (g *Game) NoPlayerHasCardsInHand() bool {
	for _, p := range g.Players() {
		if p.InHandCount() > 0 {
			return false
		}
	}
	return true
}

// GiveCardFromDeck draws one random card from the deck into to.
func (g *Game) GiveCardFromDeck(to *Holder) (*common.Card, error) {
	if to == nil || g.holders.Get(to.Identifier) != to {
		return nil, illegal("unknown card holder")
	}
	return g.Deck().PopCard(g.src, to)
}

// DealCards hands four cards to every player, and on the first deal four to
// the board as well. An empty deck finishes the game.
func (g *Game) DealCards() error {
	players := g.Players()
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return illegal("need to be %d-%d players to play", MinPlayers, MaxPlayers)
	}
	if g.Status == StatusCancelled {
		return illegal("game is cancelled")
	}
	for _, p := range players {
		if p.InHandCount() > 0 {
			return illegal("not allowed to deal cards while a player still has cards in hand")
		}
	}

	deck := g.Deck()
	if deck.CardCount() == 0 {
		g.Status = StatusFinished
		return nil
	}

	dealTo := players
	first := deck.CardCount() == common.DeckSize
	if first {
		dealTo = append(dealTo, g.Board())
	}
	if need := len(dealTo) * CardsPerDeal; deck.CardCount() < need {
		return illegal("deck holds %d cards, %d needed for a deal", deck.CardCount(), need)
	}
	if first {
		g.Status = StatusOngoing
	}

	for _, h := range dealTo {
		for i := 0; i < CardsPerDeal; i++ {
			if _, err := g.GiveCardFromDeck(h); err != nil {
				return err
			}
		}
		if h.Kind == KindBoard {
			if err := g.replaceBoardKnight(); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceBoardKnight returns a Jack dealt to the opening board to the deck and
// draws a replacement. A second Jack cancels the game.
func (g *Game) replaceBoardKnight() error {
	board := g.Board()
	knight := board.firstOfNumber(common.Jack)
	if knight == nil {
		return nil
	}
	if err := board.MoveCard(knight, g.Deck()); err != nil {
		return err
	}
	if _, err := g.GiveCardFromDeck(board); err != nil {
		return err
	}
	if board.HasKnight() {
		g.Terminate()
	}
	return nil
}

func (g *Game) Terminate() {
	g.Status = StatusCancelled
}

// PlayCard plays card from player's hand to the board and, when collect is
// non-empty, takes the played card and the collected cards into the player's
// pile. Cards are matched by id against the player's hand and the board.
func (g *Game) PlayCard(player *Holder, card *common.Card, collect []*common.Card) error {
	if g.Status != StatusOngoing {
		return illegal("game is %s", g.Status)
	}
	if !g.isPlayer(player) {
		return illegal("unknown player")
	}
	if g.PlayerInTurn() != player {
		return illegal("player not in turn")
	}
	if card == nil {
		return illegal("no card played")
	}
	played := player.Get(card.ID)
	if played == nil || played.Collected {
		return illegal("card %s is not in the player's hand", card)
	}
	collected, err := g.resolveBoardCards(collect)
	if err != nil {
		return err
	}
	ok, err := g.ValidateMove(played, collected)
	if err != nil {
		return err
	}
	if !ok {
		return illegal("move not allowed")
	}

	board := g.Board()
	if err := player.MoveCard(played, board); err != nil {
		return err
	}
	g.LastPlayedCard = played
	if len(collected) == 0 {
		g.LastCollectedCards = nil
		return nil
	}

	if err := board.MoveCard(played, player); err != nil {
		return err
	}
	played.SetCollected()
	for _, c := range collected {
		if err := board.MoveCard(c, player); err != nil {
			return err
		}
		c.SetCollected()
	}
	g.LastCollector = player
	g.LastCollectedCards = collected

	if board.CardCount() == 0 && played.Number() != common.Jack && g.Deck().CardCount() > 0 {
		g.Surs = append(g.Surs, player)
	}
	return nil
}

func (g *Game) resolveBoardCards(cards []*common.Card) ([]*common.Card, error) {
	board := g.Board()
	out := make([]*common.Card, 0, len(cards))
	seen := map[int]bool{}
	for _, c := range cards {
		if c == nil {
			return nil, illegal("missing collect card")
		}
		if seen[c.ID] {
			return nil, illegal("card %s named twice", c)
		}
		seen[c.ID] = true
		bc := board.Get(c.ID)
		if bc == nil {
			return nil, illegal("not allowed to collect card %s that is not on the board", c)
		}
		out = append(out, bc)
	}
	return out, nil
}

// NextGame starts the following hand with the same players. The player after
// this hand's starter starts the next one.
func (g *Game) NextGame() (*Game, error) {
	if !g.Status.Terminal() {
		return nil, illegal("cannot go to next game before this game is finished or cancelled")
	}
	next := NewGame(WithSource(g.src))
	for _, p := range g.Players() {
		if _, err := next.AddPlayer(p.Identifier); err != nil {
			return nil, err
		}
	}
	if order := g.PlayersInPlayOrder(); len(order) > 1 {
		next.Starter = next.Player(order[1].Identifier)
	}
	return next, nil
}
