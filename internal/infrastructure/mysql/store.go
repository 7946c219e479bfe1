package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"auction-room/internal/domain"
)

// Store is the MySQL persistence collaborator of the live room. Table and
// column names follow the existing catalog schema (Players, Teams, Bids,
// Team_Players), which the REST side of the platform owns.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ResetSession wipes prior auction progress: every player becomes available
// again and old bid logs and squad associations are cleared.
func (s *Store) ResetSession(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`UPDATE Players SET Status = 'Available'`,
		`DELETE FROM Team_Players`,
		`DELETE FROM Bids`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadPlayers(ctx context.Context) ([]*domain.Player, error) {
	query := `
        SELECT Player_ID, Name, Country, Role, Base_Price, Status
        FROM Players
        ORDER BY Player_ID
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		var p domain.Player
		var status string
		if err := rows.Scan(&p.ID, &p.Name, &p.Country, &p.Role, &p.BasePrice, &status); err != nil {
			return nil, err
		}
		p.Status = domain.PlayerStatusFromString(status)
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (s *Store) LoadTeams(ctx context.Context) ([]*domain.Team, error) {
	query := `
        SELECT Team_ID, Team_Name, Budget
        FROM Teams
        ORDER BY Team_Name
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Budget); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (s *Store) RecordBid(ctx context.Context, rec *domain.BidRecord) error {
	query := `
        INSERT INTO Bids (Bid_ID, Auction_ID, Player_ID, Team_ID, Bid_Amount, Bid_Time)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.AuctionID, rec.PlayerID, rec.TeamID, rec.Amount, rec.Timestamp)
	return err
}

// RecordSale persists a won lot in one transaction: the squad association,
// the player's status and the winning team's remaining budget.
func (s *Store) RecordSale(ctx context.Context, auctionID, playerID, teamID string, price int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO Team_Players (Auction_ID, Player_ID, Team_ID, Price) VALUES (?, ?, ?, ?)`,
		auctionID, playerID, teamID, price); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE Players SET Status = 'Sold' WHERE Player_ID = ?`, playerID); err != nil {
		return fmt.Errorf("mark player sold: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE Teams SET Budget = Budget - ? WHERE Team_ID = ?`, price, teamID); err != nil {
		return fmt.Errorf("decrement budget: %w", err)
	}
	return tx.Commit()
}

func (s *Store) MarkUnsold(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE Players SET Status = 'Unsold' WHERE Player_ID = ?`, playerID)
	return err
}
