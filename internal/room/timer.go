package room

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// bidTimer is the single lot countdown. Owned by the room loop: start always
// cancels the previous ticker first, so no two countdowns ever run at once,
// and stop is idempotent. Ticks are posted to the room inbox as Tick messages
// so they share one total order with commands; each Tick carries the
// generation of the countdown that produced it, letting the loop drop ticks
// from a countdown that was cancelled while they were in flight.
type bidTimer struct {
	clock     clockwork.Clock
	ticker    clockwork.Ticker
	done      chan struct{}
	gen       uint64
	remaining int
}

func newBidTimer(clock clockwork.Clock) *bidTimer {
	return &bidTimer{clock: clock}
}

func (t *bidTimer) start(seconds int, inbox chan<- Msg) {
	t.stop()
	t.gen++
	t.remaining = seconds
	t.ticker = t.clock.NewTicker(time.Second)
	t.done = make(chan struct{})
	go forwardTicks(t.ticker, t.gen, inbox, t.done)
}

// forwardTicks pumps ticker fires into the inbox until the countdown is
// cancelled.
func forwardTicks(ticker clockwork.Ticker, gen uint64, inbox chan<- Msg, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			select {
			case inbox <- Tick{Gen: gen}:
			case <-done:
				return
			}
		}
	}
}

func (t *bidTimer) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
		t.ticker = nil
		t.done = nil
	}
	t.remaining = 0
}

// current reports whether gen identifies the running countdown.
func (t *bidTimer) current(gen uint64) bool {
	return t.ticker != nil && gen == t.gen
}

// tick consumes one elapsed second and returns the seconds left.
func (t *bidTimer) tick() int {
	if t.remaining > 0 {
		t.remaining--
	}
	return t.remaining
}

func (t *bidTimer) secondsLeft() int {
	return t.remaining
}
