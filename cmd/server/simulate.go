package main

import (
	"encoding/json"
	"fmt"
	"os"

	"pasur-go/internal/game/pasur"

	"github.com/urfave/cli/v2"
)

// simulate plays one hand between bots with a real shuffle and prints the
// final snapshot and points.
func simulate(c *cli.Context) error {
	n := c.Int("players")
	if n < pasur.MinPlayers || n > pasur.MaxPlayers {
		return fmt.Errorf("players must be %d-%d", pasur.MinPlayers, pasur.MaxPlayers)
	}
	difficulty := pasur.BotDifficulty(c.String("difficulty"))
	if difficulty != pasur.BotEasy && difficulty != pasur.BotMedium {
		return fmt.Errorf("unknown difficulty %q", difficulty)
	}

	g := pasur.NewGame()
	for i := 1; i <= n; i++ {
		if _, err := g.AddPlayer(fmt.Sprintf("bot%d", i)); err != nil {
			return err
		}
	}

	for g.Status == pasur.StatusPending || g.Status == pasur.StatusOngoing {
		if err := g.DealCards(); err != nil {
			return err
		}
		for g.Status == pasur.StatusOngoing && !g.NoPlayerHasCardsInHand() {
			p := g.PlayerInTurn()
			m, err := g.ChooseMove(p, difficulty)
			if err != nil {
				return err
			}
			if err := g.PlayCard(p, m.Card, m.Collect); err != nil {
				return fmt.Errorf("%s playing %s: %w", p.Identifier, m.Card, err)
			}
			if c.Bool("verbose") {
				fmt.Fprintf(os.Stderr, "%s played %s collecting %v\n", p.Identifier, m.Card, m.Collect)
			}
		}
	}

	out := map[string]any{"status": g.Status}
	if g.Status == pasur.StatusFinished {
		points, err := g.CountPoints()
		if err != nil {
			return err
		}
		out["points"] = points
	}
	out["state"] = g.Snapshot()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
