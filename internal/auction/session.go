package auction

import (
	"context"
	"fmt"
	"time"

	"auction-room/internal/domain"
	"auction-room/pkg/logger"
	"auction-room/pkg/utils"
)

// Outcome classifies the result of applying a command to the session.
// Rejections stay silent on the wire but are explicit here so the core is
// testable without protocol-level error replies.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedWrongRole
	RejectedWrongState
	RejectedUnknownTeam
	RejectedOverBudget
	RejectedLowBid
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedWrongRole:
		return "wrong_role"
	case RejectedWrongState:
		return "wrong_state"
	case RejectedUnknownTeam:
		return "unknown_team"
	case RejectedOverBudget:
		return "over_budget"
	case RejectedLowBid:
		return "low_bid"
	default:
		return "unknown"
	}
}

// Resolution is the result of closing the current lot.
type Resolution struct {
	Sold    bool
	Player  *domain.Player
	Team    *domain.Team
	Price   int64
	Message string
}

// Session is the authoritative auction state machine. It has exactly one
// writer: the room loop that owns it. Methods are synchronous and never
// block on anything but the store.
type Session struct {
	auctionID string
	players   []*domain.Player
	teams     map[string]*domain.Team
	teamList  []*domain.Team

	status        domain.AuctionStatus
	cursor        int
	current       *domain.Player
	currentBid    int64
	highestBidder *domain.Team
	soldHistory   []domain.SoldLot

	store domain.AuctionStore
	log   logger.Logger
}

func NewSession(auctionID string, players []*domain.Player, teams []*domain.Team,
	store domain.AuctionStore, log logger.Logger) *Session {
	byName := make(map[string]*domain.Team, len(teams))
	for _, t := range teams {
		byName[t.Name] = t
	}
	return &Session{
		auctionID: auctionID,
		players:   players,
		teams:     byName,
		teamList:  teams,
		status:    domain.AuctionPending,
		store:     store,
		log:       log,
	}
}

func (s *Session) AuctionID() string            { return s.auctionID }
func (s *Session) Status() domain.AuctionStatus { return s.status }
func (s *Session) CurrentBid() int64            { return s.currentBid }

func (s *Session) CurrentPlayer() *domain.Player { return s.current }

func (s *Session) HighestBidder() string {
	if s.highestBidder == nil {
		return ""
	}
	return s.highestBidder.Name
}

// HasTeam reports whether name is a team in this session's roster.
func (s *Session) HasTeam(name string) bool {
	_, ok := s.teams[name]
	return ok
}

// Start opens the first lot. Auctioneer only, pending only.
func (s *Session) Start(role domain.Role) Outcome {
	if role != domain.RoleAuctioneer {
		return RejectedWrongRole
	}
	if s.status != domain.AuctionPending {
		return RejectedWrongState
	}
	s.advanceLot()
	return Accepted
}

// Advance moves to the next available lot after a resolved one, or finishes
// the session when no available player remains. Auctioneer only.
func (s *Session) Advance(role domain.Role) Outcome {
	if role != domain.RoleAuctioneer {
		return RejectedWrongRole
	}
	if s.status != domain.AuctionSold {
		return RejectedWrongState
	}
	s.advanceLot()
	return Accepted
}

func (s *Session) advanceLot() {
	for s.cursor < len(s.players) && s.players[s.cursor].Status != domain.PlayerAvailable {
		s.cursor++
	}
	if s.cursor >= len(s.players) {
		s.status = domain.AuctionFinished
		s.current = nil
		s.currentBid = 0
		s.highestBidder = nil
		return
	}
	s.current = s.players[s.cursor]
	s.currentBid = 0
	s.highestBidder = nil
	s.status = domain.AuctionActive
}

// PlaceBid applies a bid from the connection holding role. Self-service: a
// connection can only bid for the team it registered as. The first bid on a
// lot must reach the base price; later bids must strictly raise the current
// bid. No minimum increment beyond that.
func (s *Session) PlaceBid(ctx context.Context, role domain.Role, teamName string, amount int64) Outcome {
	if s.status != domain.AuctionActive {
		return RejectedWrongState
	}
	if string(role) != teamName {
		return RejectedWrongRole
	}
	team, ok := s.teams[teamName]
	if !ok {
		return RejectedUnknownTeam
	}
	if team.Budget < amount {
		return RejectedOverBudget
	}
	if s.currentBid > 0 {
		if amount <= s.currentBid {
			return RejectedLowBid
		}
	} else if amount < s.current.BasePrice {
		return RejectedLowBid
	}

	s.currentBid = amount
	s.highestBidder = team

	rec := &domain.BidRecord{
		ID:        utils.GenerateID("bid"),
		AuctionID: s.auctionID,
		PlayerID:  s.current.ID,
		TeamID:    team.ID,
		Amount:    amount,
		Timestamp: time.Now(),
	}
	// The bid log is not authoritative; a failed write is logged and the
	// bid still stands.
	if err := s.store.RecordBid(ctx, rec); err != nil {
		s.log.Error("Failed to record bid", "auction_id", s.auctionID,
			"player_id", s.current.ID, "team", teamName, "error", err)
	}
	return Accepted
}

// ResolveLot closes the current lot. With a highest bidder the sale is
// persisted first; the in-memory mutation only happens once the store took
// the write, so memory and store cannot diverge on who owns a player. A
// failed sale write resolves the lot unsold. Returns false when there is no
// open lot to resolve.
func (s *Session) ResolveLot(ctx context.Context) (Resolution, bool) {
	if s.status != domain.AuctionActive || s.current == nil {
		return Resolution{}, false
	}
	s.status = domain.AuctionSold
	p := s.current

	if s.highestBidder != nil {
		team := s.highestBidder
		price := s.currentBid
		if err := s.store.RecordSale(ctx, s.auctionID, p.ID, team.ID, price); err != nil {
			s.log.Error("Failed to record sale, resolving lot unsold",
				"auction_id", s.auctionID, "player_id", p.ID, "team", team.Name, "error", err)
			return s.resolveUnsold(ctx, p), true
		}
		p.Status = domain.PlayerSold
		team.Budget -= price
		s.soldHistory = append(s.soldHistory, domain.SoldLot{Player: p, Team: team.Name, Price: price})
		return Resolution{
			Sold:    true,
			Player:  p,
			Team:    team,
			Price:   price,
			Message: fmt.Sprintf("%s SOLD to %s for %d", p.Name, team.Name, price),
		}, true
	}
	return s.resolveUnsold(ctx, p), true
}

func (s *Session) resolveUnsold(ctx context.Context, p *domain.Player) Resolution {
	if err := s.store.MarkUnsold(ctx, p.ID); err != nil {
		s.log.Error("Failed to mark player unsold", "auction_id", s.auctionID,
			"player_id", p.ID, "error", err)
	}
	p.Status = domain.PlayerUnsold
	return Resolution{
		Sold:    false,
		Player:  p,
		Message: fmt.Sprintf("%s UNSOLD", p.Name),
	}
}

// Snapshot renders the session as the wire-level state clients receive.
func (s *Session) Snapshot(timerRemaining int) *domain.StateSnapshot {
	snap := &domain.StateSnapshot{
		Status:        s.status.String(),
		CurrentBid:    s.currentBid,
		HighestBidder: s.HighestBidder(),
		Timer:         timerRemaining,
		SoldHistory:   make([]domain.SoldLot, len(s.soldHistory)),
	}
	copy(snap.SoldHistory, s.soldHistory)
	if s.current != nil {
		cp := *s.current
		snap.CurrentPlayer = &cp
	}
	return snap
}

// Teams returns a point-in-time copy of the roster, in load order.
func (s *Session) Teams() []*domain.Team {
	out := make([]*domain.Team, len(s.teamList))
	for i, t := range s.teamList {
		cp := *t
		out[i] = &cp
	}
	return out
}

// SoldCount reports how many lots have been sold so far.
func (s *Session) SoldCount() int {
	return len(s.soldHistory)
}
