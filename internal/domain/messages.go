package domain

// Wire envelopes for the live auction room. Every message carries a "type"
// discriminator; unknown inbound types are ignored by the room.

// Inbound command types.
const (
	CmdRegisterRole = "REGISTER_ROLE"
	CmdStartAuction = "START_AUCTION"
	CmdNextPlayer   = "NEXT_PLAYER"
	CmdPlaceBid     = "PLACE_BID"
)

// ClientCommand is a client -> server envelope. Fields beyond Type are only
// meaningful for some commands.
type ClientCommand struct {
	Type   string `json:"type"`
	Role   string `json:"role,omitempty"`
	Team   string `json:"team,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// Outbound event types.
const (
	EvtAuctionState     = "AUCTION_STATE"
	EvtTeamsUpdate      = "TEAMS_UPDATE"
	EvtConnectedTeams   = "CONNECTED_TEAMS"
	EvtBidLog           = "BID_LOG"
	EvtSoldAnnouncement = "SOLD_ANNOUNCEMENT"
)

// StateSnapshot is the complete, self-contained auction state clients render.
type StateSnapshot struct {
	Status        string    `json:"status"`
	CurrentPlayer *Player   `json:"currentPlayer"`
	CurrentBid    int64     `json:"currentBid"`
	HighestBidder string    `json:"highestBidder,omitempty"`
	Timer         int       `json:"timer"`
	SoldHistory   []SoldLot `json:"soldHistory"`
}

type StateEvent struct {
	Type  string         `json:"type"`
	State *StateSnapshot `json:"state"`
}

type TeamsEvent struct {
	Type  string  `json:"type"`
	Teams []*Team `json:"teams"`
}

// PresenceEvent lists the currently claimed roles so clients can render
// connected indicators.
type PresenceEvent struct {
	Type  string   `json:"type"`
	Teams []string `json:"teams"`
}

type BidLogEntry struct {
	Team   string `json:"team"`
	Amount int64  `json:"amount"`
}

type BidLogEvent struct {
	Type string      `json:"type"`
	Log  BidLogEntry `json:"log"`
}

type AnnouncementEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
