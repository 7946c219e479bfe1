package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"

	"auction-room/internal/domain"
	"auction-room/internal/room"
	"auction-room/pkg/logger"
)

// SessionReporter periodically snapshots the room, refreshes the read-side
// snapshot cache and logs session progress. It only reads broadcastable
// state; it never mutates the session.
type SessionReporter struct {
	cron      *cron.Cron
	room      *room.Room
	cache     domain.SnapshotCache
	auctionID string
	log       logger.Logger
}

func NewSessionReporter(rm *room.Room, cache domain.SnapshotCache,
	auctionID string, log logger.Logger) *SessionReporter {
	return &SessionReporter{
		cron:      cron.New(cron.WithSeconds()),
		room:      rm,
		cache:     cache,
		auctionID: auctionID,
		log:       log,
	}
}

func (s *SessionReporter) Start(ctx context.Context) error {
	s.log.Info("Starting session reporter", "auction_id", s.auctionID)
	_, err := s.cron.AddFunc("@every 30s", func() {
		s.publishSnapshot(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *SessionReporter) Stop() error {
	s.log.Info("Stopping session reporter")
	s.cron.Stop()
	return nil
}

func (s *SessionReporter) publishSnapshot(ctx context.Context) {
	reply := make(chan room.View, 1)
	select {
	case s.room.Inbox() <- room.GetState{Reply: reply}:
	case <-time.After(5 * time.Second):
		s.log.Warn("Room did not accept snapshot request")
		return
	}

	var view room.View
	select {
	case view = <-reply:
	case <-time.After(5 * time.Second):
		s.log.Warn("Room did not answer snapshot request")
		return
	}

	payload, err := json.Marshal(domain.StateEvent{Type: domain.EvtAuctionState, State: view.Snapshot})
	if err != nil {
		s.log.Error("Failed to marshal snapshot", "error", err)
		return
	}
	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, s.auctionID, payload); err != nil {
			s.log.Error("Failed to cache snapshot", "error", err)
		}
	}
	s.log.Info("Session progress", "auction_id", s.auctionID,
		"status", view.Snapshot.Status, "sold", len(view.Snapshot.SoldHistory),
		"clients", view.NumClients)
}
