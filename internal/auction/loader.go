package auction

import (
	"context"
	"fmt"

	"auction-room/internal/domain"
	"auction-room/pkg/logger"
)

// LoadSession bootstraps a fresh session from the store: prior progress is
// wiped, then the ordered player queue and the team roster are loaded into
// memory. Every process restart starts over from pending.
func LoadSession(ctx context.Context, auctionID string, store domain.AuctionStore,
	log logger.Logger) (*Session, error) {
	if err := store.ResetSession(ctx); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}

	players, err := store.LoadPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	teams, err := store.LoadTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}

	log.Info("Auction roster loaded", "auction_id", auctionID,
		"players", len(players), "teams", len(teams))
	return NewSession(auctionID, players, teams, store, log), nil
}
