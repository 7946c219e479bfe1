package domain

import (
	"time"
)

type Player struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Country   string       `json:"country"`
	Role      string       `json:"role"`
	BasePrice int64        `json:"basePrice"`
	Status    PlayerStatus `json:"-"`
}

type PlayerStatus int

const (
	PlayerAvailable PlayerStatus = iota
	PlayerSold
	PlayerUnsold
)

func (s PlayerStatus) String() string {
	switch s {
	case PlayerAvailable:
		return "Available"
	case PlayerSold:
		return "Sold"
	case PlayerUnsold:
		return "Unsold"
	default:
		return "unknown"
	}
}

func PlayerStatusFromString(s string) PlayerStatus {
	switch s {
	case "Sold":
		return PlayerSold
	case "Unsold":
		return PlayerUnsold
	default:
		return PlayerAvailable
	}
}

type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
}

type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionActive
	AuctionSold
	AuctionFinished
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionSold:
		return "sold"
	case AuctionFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// SoldLot is one entry of the session's append-only sold history.
type SoldLot struct {
	Player *Player `json:"player"`
	Team   string  `json:"team"`
	Price  int64   `json:"price"`
}

type BidRecord struct {
	ID        string
	AuctionID string
	PlayerID  string
	TeamID    string
	Amount    int64
	Timestamp time.Time
}

// Role is a connection's claimed identity: the auctioneer or a team name.
// The empty role is a spectator.
type Role string

const (
	RoleNone       Role = ""
	RoleAuctioneer Role = "Auctioneer"
)

func (r Role) Acting() bool {
	return r != RoleNone
}
