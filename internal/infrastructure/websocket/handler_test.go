package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"auction-room/internal/auction"
	"auction-room/internal/domain"
	"auction-room/internal/room"
	"auction-room/pkg/logger"
)

type stubStore struct{}

func (stubStore) ResetSession(ctx context.Context) error { return nil }

func (stubStore) LoadPlayers(ctx context.Context) ([]*domain.Player, error) { return nil, nil }

func (stubStore) LoadTeams(ctx context.Context) ([]*domain.Team, error) { return nil, nil }

func (stubStore) RecordBid(ctx context.Context, rec *domain.BidRecord) error { return nil }

func (stubStore) RecordSale(ctx context.Context, auctionID, playerID, teamID string, price int64) error {
	return nil
}

func (stubStore) MarkUnsold(ctx context.Context, playerID string) error { return nil }

type wireEvent struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state,omitempty"`
	Teams json.RawMessage `json:"teams,omitempty"`
}

func newTestServer(t *testing.T) (*room.Room, *httptest.Server) {
	t.Helper()
	players := []*domain.Player{{ID: "p1", Name: "A", BasePrice: 100}}
	teams := []*domain.Team{{ID: "t1", Name: "X", Budget: 500}}
	session := auction.NewSession("auction_test", players, teams, stubStore{}, logger.NewNop())
	rm := room.New(context.Background(), session, clockwork.NewFakeClock(), 10, nil, logger.NewNop())
	h := NewHandler(rm, logger.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnection))
	t.Cleanup(func() {
		srv.Close()
		rm.Inbox() <- room.Shutdown{}
	})
	return rm, srv
}

func dialServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt wireEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("bad event payload %s: %v", data, err)
	}
	return evt
}

func roomView(t *testing.T, rm *room.Room) room.View {
	t.Helper()
	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for view")
		return room.View{} // unreachable
	}
}

func TestConnectionReceivesJoinSnapshots(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dialServer(t, srv)
	defer conn.Close()

	want := []string{domain.EvtAuctionState, domain.EvtTeamsUpdate, domain.EvtConnectedTeams}
	for _, wantType := range want {
		if evt := readEvent(t, conn); evt.Type != wantType {
			t.Fatalf("event type = %s, want %s", evt.Type, wantType)
		}
	}
}

func TestMalformedFramesAreSkipped(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dialServer(t, srv)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		readEvent(t, conn)
	}

	frames := [][]byte{
		[]byte(`{not json`),
		[]byte(`"a string"`),
		[]byte(`{"amount": 5}`), // no type
		[]byte(`{"type": "REGISTER_ROLE", "role": "X"}`),
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// The bad frames produce nothing; the first event after them is the
	// presence broadcast from the valid envelope.
	evt := readEvent(t, conn)
	if evt.Type != domain.EvtConnectedTeams {
		t.Fatalf("event type = %s, want %s", evt.Type, domain.EvtConnectedTeams)
	}
	var roles []string
	if err := json.Unmarshal(evt.Teams, &roles); err != nil {
		t.Fatalf("bad presence payload: %v", err)
	}
	if len(roles) != 1 || roles[0] != "X" {
		t.Fatalf("roles = %v, want [X]", roles)
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	rm, srv := newTestServer(t)
	conn := dialServer(t, srv)
	for i := 0; i < 3; i++ {
		readEvent(t, conn)
	}
	if view := roomView(t, rm); view.NumClients != 1 {
		t.Fatalf("clients = %d, want 1", view.NumClients)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if view := roomView(t, rm); view.NumClients == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("client never left the room")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
