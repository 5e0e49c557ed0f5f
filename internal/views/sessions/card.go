package sessions

import "time"

// cardPhase is the kill/cleanup lifecycle of one session row.
//
//	idle → collapsing (exited only) → killing → removed by parent
//	idle → killing (running)        → removed by parent
//
// Any failure drops the card back to idle; the next list refresh
// reconciles whatever actually happened server-side.
type cardPhase int

const (
	cardIdle cardPhase = iota
	cardCollapsing
	cardKilling
)

const (
	// collapseDelay is the fixed collapse animation played before the
	// cleanup request for an exited session is issued. The request is
	// gated on the timer, not on the animation having visually
	// finished.
	collapseDelay = 300 * time.Millisecond

	// spinnerInterval cycles the killing spinner frame.
	spinnerInterval = 100 * time.Millisecond

	// activityWindow is how long the activity pulse stays lit after a
	// buffer-activity event; each new event restarts the window.
	activityWindow = 500 * time.Millisecond
)

// card is the per-session view state. It never outlives the session
// row it belongs to; SetSessions prunes cards for vanished ids.
type card struct {
	phase        cardPhase
	spinnerFrame int

	// activity pulse, display only
	active      bool
	activityGen int
}

// canKill reports whether a kill attempt may enter the killing phase.
// Re-entry while not idle is rejected so a double submit issues
// exactly one request.
func (c *card) canKill(status string) bool {
	if c.phase != cardIdle {
		return false
	}
	return status == "running" || status == "exited"
}
