package domain

import (
	"context"
)

// AuctionStore is the persistence collaborator of the live room. All writes
// happen inside the room's serialized command path.
type AuctionStore interface {
	// ResetSession puts every player back to Available and clears prior
	// team-player associations and bid logs. Called once at process start.
	ResetSession(ctx context.Context) error
	LoadPlayers(ctx context.Context) ([]*Player, error)
	LoadTeams(ctx context.Context) ([]*Team, error)
	RecordBid(ctx context.Context, rec *BidRecord) error
	RecordSale(ctx context.Context, auctionID, playerID, teamID string, price int64) error
	MarkUnsold(ctx context.Context, playerID string) error
}

// EventPublisher pushes accepted bids and lot results to out-of-room
// consumers (analytics). Best effort; failures never affect room state.
type EventPublisher interface {
	PublishBid(ctx context.Context, auctionID, team string, amount int64) error
	PublishSale(ctx context.Context, auctionID, player, team string, price int64) error
}

// SnapshotCache keeps the latest serialized state snapshot for read-side
// consumers that do not hold a live connection.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, auctionID string, payload []byte) error
}
