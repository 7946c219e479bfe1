package room

import (
	"context"
	"encoding/json"

	"github.com/jonboulle/clockwork"

	"auction-room/internal/auction"
	"auction-room/internal/domain"
	"auction-room/pkg/logger"
)

// Msg is a message delivered to the room loop. Everything that can mutate
// session state flows through the inbox, including timer ticks, so a bid
// queued before an expiry is always applied before it.
type Msg interface{ isRoomMsg() }

// Join registers a connection with no role and immediately sends it the
// current state and roster snapshots.
type Join struct {
	ID     string
	Outbox chan []byte
}

type Leave struct{ ID string }

// FromClient carries one inbound command envelope from a connection.
type FromClient struct {
	ID  string
	Cmd domain.ClientCommand
}

// GetState asks the loop for a consistent read-only view. Reply must be
// buffered.
type GetState struct {
	Reply chan View
}

type Shutdown struct{}

// Tick is one elapsed countdown second, posted by the timer's forwarding
// goroutine. Gen identifies the countdown that produced it; ticks from a
// cancelled countdown are dropped by the loop.
type Tick struct {
	Gen uint64
}

func (Join) isRoomMsg()       {}
func (Leave) isRoomMsg()      {}
func (FromClient) isRoomMsg() {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}
func (Tick) isRoomMsg()       {}

// View is a race-free copy of what the room knows, for HTTP handlers, the
// session reporter and tests.
type View struct {
	Snapshot   *domain.StateSnapshot
	Teams      []*domain.Team
	Roles      []string
	NumClients int
}

// Room owns the auction session, the bid timer and the connection registry.
// One goroutine runs the loop; connections talk to it through the inbox and
// receive broadcasts on their outbox channels.
type Room struct {
	inbox     chan Msg
	session   *auction.Session
	reg       *registry
	timer     *bidTimer
	countdown int
	events    domain.EventPublisher
	log       logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New starts the room loop. events may be nil when no out-of-room publishing
// is wired.
func New(parent context.Context, session *auction.Session, clock clockwork.Clock,
	countdownSeconds int, events domain.EventPublisher, log logger.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:     make(chan Msg, 64),
		session:   session,
		reg:       newRegistry(),
		timer:     newBidTimer(clock),
		countdown: countdownSeconds,
		events:    events,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg.ID)
			case FromClient:
				r.handleCommand(msg.ID, msg.Cmd)
			case Tick:
				r.handleTick(msg.Gen)
			case GetState:
				msg.Reply <- r.view()
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	c := r.reg.add(msg.ID, msg.Outbox)
	if !r.sendTo(c, domain.StateEvent{Type: domain.EvtAuctionState, State: r.snapshot()}) ||
		!r.sendTo(c, domain.TeamsEvent{Type: domain.EvtTeamsUpdate, Teams: r.session.Teams()}) {
		r.log.Warn("Dropping client during join", "client_id", msg.ID)
		return
	}
	r.broadcastPresence()
	r.log.Info("Client joined", "client_id", msg.ID, "clients", r.reg.size())
}

func (r *Room) handleLeave(id string) {
	role := r.reg.roleOf(id)
	r.reg.remove(id)
	r.broadcastPresence()
	r.log.Info("Client left", "client_id", id, "role", string(role), "clients", r.reg.size())
}

func (r *Room) handleCommand(id string, cmd domain.ClientCommand) {
	role := r.reg.roleOf(id)

	switch cmd.Type {
	case domain.CmdRegisterRole:
		claimed := domain.Role(cmd.Role)
		if claimed != domain.RoleAuctioneer && !r.session.HasTeam(cmd.Role) {
			r.log.Debug("Ignoring unknown role", "client_id", id, "role", cmd.Role)
			return
		}
		if !r.reg.claim(id, claimed) {
			r.log.Debug("Role already claimed", "client_id", id, "role", cmd.Role)
			return
		}
		r.broadcastPresence()

	case domain.CmdStartAuction:
		if out := r.session.Start(role); out != auction.Accepted {
			r.log.Debug("Start rejected", "client_id", id, "outcome", out.String())
			return
		}
		// An empty roster finishes immediately; no countdown to run.
		if r.session.Status() == domain.AuctionFinished {
			r.timer.stop()
		} else {
			r.timer.start(r.countdown, r.inbox)
		}
		r.broadcastState()

	case domain.CmdNextPlayer:
		if out := r.session.Advance(role); out != auction.Accepted {
			r.log.Debug("Advance rejected", "client_id", id, "outcome", out.String())
			return
		}
		if r.session.Status() == domain.AuctionFinished {
			r.timer.stop()
		} else {
			r.timer.start(r.countdown, r.inbox)
		}
		r.broadcastState()

	case domain.CmdPlaceBid:
		out := r.session.PlaceBid(r.ctx, role, cmd.Team, cmd.Amount)
		if out != auction.Accepted {
			r.log.Debug("Bid rejected", "client_id", id, "team", cmd.Team,
				"amount", cmd.Amount, "outcome", out.String())
			return
		}
		// Every accepted bid buys the lot a full countdown again.
		r.timer.start(r.countdown, r.inbox)
		if r.events != nil {
			if err := r.events.PublishBid(r.ctx, r.session.AuctionID(), cmd.Team, cmd.Amount); err != nil {
				r.log.Error("Failed to publish bid event", "error", err)
			}
		}
		r.broadcast(domain.BidLogEvent{
			Type: domain.EvtBidLog,
			Log:  domain.BidLogEntry{Team: cmd.Team, Amount: cmd.Amount},
		})
		r.broadcastState()

	default:
		// Unknown command types are dropped.
	}
}

func (r *Room) handleTick(gen uint64) {
	if !r.timer.current(gen) {
		return
	}
	if left := r.timer.tick(); left > 0 {
		r.broadcastState()
		return
	}
	r.timer.stop()

	res, ok := r.session.ResolveLot(r.ctx)
	if !ok {
		return
	}
	if res.Sold {
		if r.events != nil {
			if err := r.events.PublishSale(r.ctx, r.session.AuctionID(),
				res.Player.Name, res.Team.Name, res.Price); err != nil {
				r.log.Error("Failed to publish sale event", "error", err)
			}
		}
		r.broadcast(domain.TeamsEvent{Type: domain.EvtTeamsUpdate, Teams: r.session.Teams()})
	}
	r.broadcastState()
	r.broadcast(domain.AnnouncementEvent{Type: domain.EvtSoldAnnouncement, Message: res.Message})
	r.log.Info("Lot resolved", "player", res.Player.Name, "sold", res.Sold, "price", res.Price)
}

func (r *Room) snapshot() *domain.StateSnapshot {
	return r.session.Snapshot(r.timer.secondsLeft())
}

func (r *Room) view() View {
	return View{
		Snapshot:   r.snapshot(),
		Teams:      r.session.Teams(),
		Roles:      r.reg.roles(),
		NumClients: r.reg.size(),
	}
}

func (r *Room) broadcastState() {
	r.broadcast(domain.StateEvent{Type: domain.EvtAuctionState, State: r.snapshot()})
}

func (r *Room) broadcastPresence() {
	r.fanout(r.marshal(domain.PresenceEvent{Type: domain.EvtConnectedTeams, Teams: r.reg.roles()}))
}

// broadcast fans an event out to every client. Clients dropped for a full
// outbox may free up claimed roles, so presence is rebroadcast once after.
func (r *Room) broadcast(v interface{}) {
	if r.fanout(r.marshal(v)) {
		r.broadcastPresence()
	}
}

// fanout delivers payload best-effort. A client whose outbox is full is
// closed and removed; one slow consumer never blocks the loop or the rest.
// Reports whether any dropped client held an acting role.
func (r *Room) fanout(payload []byte) bool {
	if payload == nil {
		return false
	}
	droppedRole := false
	for id, c := range r.reg.clients {
		select {
		case c.outbox <- payload:
		default:
			r.log.Warn("Dropping slow client", "client_id", id, "role", string(c.role))
			close(c.outbox)
			delete(r.reg.clients, id)
			if c.role.Acting() {
				droppedRole = true
			}
		}
	}
	return droppedRole
}

// sendTo delivers one event to a single client. A full outbox drops the
// client; callers must not send to a client once this returns false.
func (r *Room) sendTo(c *client, v interface{}) bool {
	payload := r.marshal(v)
	if payload == nil {
		return true
	}
	select {
	case c.outbox <- payload:
		return true
	default:
		close(c.outbox)
		r.reg.remove(c.id)
		return false
	}
}

func (r *Room) marshal(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error("Failed to marshal event", "error", err)
		return nil
	}
	return payload
}

func (r *Room) shutdown() {
	r.timer.stop()
	for id, c := range r.reg.clients {
		close(c.outbox)
		delete(r.reg.clients, id)
	}
	r.cancel()
}
