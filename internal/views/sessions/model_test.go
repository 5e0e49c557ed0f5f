package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/vibetunnel/tui/internal/api"
)

type fakeAPI struct {
	mu       sync.Mutex
	kills    []string
	cleanups []string
	bulk     int
	err      error
}

func (f *fakeAPI) KillSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills = append(f.kills, id)
	return f.err
}

func (f *fakeAPI) CleanupSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, id)
	return f.err
}

func (f *fakeAPI) CleanupExited(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk++
	return f.err
}

// exec runs a command synchronously and flattens batches.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// findMsg returns the first message of type T from msgs.
func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func running(id string, pid int) api.Session {
	return api.Session{ID: id, Name: id, Status: api.StatusRunning, PID: pid}
}

func exited(id string) api.Session {
	code := 0
	return api.Session{ID: id, Name: id, Status: api.StatusExited, ExitCode: &code}
}

func TestVisibleExcludesOnlyExited(t *testing.T) {
	m := New(&fakeAPI{})
	m.SetSessions([]api.Session{
		running("a", 1),
		exited("b"),
		{ID: "c", Status: "starting"},
	})

	if got := len(m.Visible()); got != 3 {
		t.Fatalf("unfiltered visible = %d, want 3", got)
	}

	m.ToggleHideExited()
	visible := m.Visible()
	if len(visible) != 2 {
		t.Fatalf("filtered visible = %d, want 2", len(visible))
	}
	for _, s := range visible {
		if s.Status == api.StatusExited {
			t.Errorf("exited session %q passed the filter", s.ID)
		}
	}

	// "starting" is not exited and must survive the filter.
	if visible[1].ID != "c" {
		t.Errorf("expected session c to survive, got %q", visible[1].ID)
	}

	m.ToggleHideExited()
	if got := len(m.Visible()); got != 3 {
		t.Errorf("visible after toggling back = %d, want 3", got)
	}
}

func TestKillRunningIssuesOneRequest(t *testing.T) {
	fake := &fakeAPI{}
	m := New(fake)
	m.SetSessions([]api.Session{running("a", 42)})

	cmd := m.KillSelected()
	if cmd == nil {
		t.Fatal("first kill returned nil cmd")
	}
	// Second kill while the first is in flight must be a no-op.
	if again := m.KillSelected(); again != nil {
		t.Fatal("second kill returned a cmd, want nil")
	}

	msgs := exec(cmd)
	if len(fake.kills) != 1 || fake.kills[0] != "a" {
		t.Fatalf("kills = %v, want [a]", fake.kills)
	}
	if len(fake.cleanups) != 0 {
		t.Fatalf("cleanups = %v, want none for a running session", fake.cleanups)
	}

	res, ok := findMsg[killResultMsg](msgs)
	if !ok {
		t.Fatal("no killResultMsg produced")
	}
	m, cmd = m.Update(res)
	if len(m.sessions) != 0 {
		t.Errorf("session not spliced out after successful kill")
	}
	if _, ok := findMsg[KilledMsg](exec(cmd)); !ok {
		t.Error("no KilledMsg emitted after successful kill")
	}
}

func TestKillExitedCollapsesThenCleansUp(t *testing.T) {
	fake := &fakeAPI{}
	m := New(fake)
	m.SetSessions([]api.Session{exited("b")})

	cmd := m.kill(exited("b"))
	if cmd == nil {
		t.Fatal("kill returned nil cmd")
	}
	// No request may be issued before the collapse timer fires.
	if len(fake.cleanups) != 0 || len(fake.kills) != 0 {
		t.Fatal("request issued before collapse finished")
	}
	if m.cards["b"].phase != cardCollapsing {
		t.Fatalf("card phase = %v, want collapsing", m.cards["b"].phase)
	}
	// Re-kill during the collapse must not start a second lifecycle.
	if again := m.kill(exited("b")); again != nil {
		t.Fatal("kill during collapse returned a cmd, want nil")
	}

	msgs := exec(cmd) // waits out the collapse tick
	done, ok := findMsg[collapseDoneMsg](msgs)
	if !ok {
		t.Fatal("no collapseDoneMsg from collapse timer")
	}

	m, cmd = m.Update(done)
	msgs = exec(cmd)
	if len(fake.cleanups) != 1 || fake.cleanups[0] != "b" {
		t.Fatalf("cleanups = %v, want [b]", fake.cleanups)
	}
	if len(fake.kills) != 0 {
		t.Fatalf("kills = %v, exited sessions must use the cleanup endpoint", fake.kills)
	}

	res, ok := findMsg[killResultMsg](msgs)
	if !ok {
		t.Fatal("no killResultMsg after cleanup request")
	}
	m, _ = m.Update(res)
	if len(m.sessions) != 0 {
		t.Error("exited session not spliced out after cleanup")
	}
}

func TestKillErrorRevertsToIdle(t *testing.T) {
	fake := &fakeAPI{err: errors.New("boom")}
	m := New(fake)
	m.SetSessions([]api.Session{running("a", 1)})

	msgs := exec(m.KillSelected())
	res, ok := findMsg[killResultMsg](msgs)
	if !ok {
		t.Fatal("no killResultMsg")
	}

	var cmd tea.Cmd
	m, cmd = m.Update(res)
	if _, ok := findMsg[KillErrorMsg](exec(cmd)); !ok {
		t.Error("no KillErrorMsg after failed kill")
	}
	if len(m.sessions) != 1 {
		t.Error("session removed despite failed kill")
	}
	if m.cards["a"].phase != cardIdle {
		t.Error("card not reverted to idle after failure")
	}

	// The card is killable again once idle.
	fake.err = nil
	if cmd := m.KillSelected(); cmd == nil {
		t.Error("retry after failure returned nil cmd")
	}
}

func TestCleanupExitedInFlightGuard(t *testing.T) {
	fake := &fakeAPI{}
	m := New(fake)
	m.SetSessions([]api.Session{running("a", 1), exited("b"), exited("c")})

	cmd := m.CleanupExited()
	if cmd == nil {
		t.Fatal("first cleanup returned nil cmd")
	}
	if again := m.CleanupExited(); again != nil {
		t.Fatal("second cleanup returned a cmd while one is in flight")
	}

	msgs := exec(cmd)
	if fake.bulk != 1 {
		t.Fatalf("bulk cleanup requests = %d, want 1", fake.bulk)
	}

	res, ok := findMsg[cleanupResultMsg](msgs)
	if !ok {
		t.Fatal("no cleanupResultMsg")
	}
	m, cmd = m.Update(res)

	// Exited cards collapse together; nothing is spliced yet.
	if len(m.sessions) != 3 {
		t.Fatal("sessions spliced before the collapse delay")
	}
	for _, id := range []string{"b", "c"} {
		if m.cards[id].phase != cardCollapsing {
			t.Errorf("card %s phase = %v, want collapsing", id, m.cards[id].phase)
		}
	}
	if m.cards["a"].phase != cardIdle {
		t.Error("running card must not collapse during bulk cleanup")
	}

	msgs = exec(cmd) // waits out the batch collapse tick
	splice, ok := findMsg[cleanupSpliceMsg](msgs)
	if !ok {
		t.Fatal("no cleanupSpliceMsg from batch timer")
	}
	m, cmd = m.Update(splice)
	if len(m.sessions) != 1 || m.sessions[0].ID != "a" {
		t.Fatalf("sessions after splice = %v, want only a", m.sessions)
	}
	if _, ok := findMsg[CleanupDoneMsg](exec(cmd)); !ok {
		t.Error("no CleanupDoneMsg after batch splice")
	}

	// Guard released; a new cleanup may start.
	if cmd := m.CleanupExited(); cmd == nil {
		t.Error("cleanup after completion returned nil cmd")
	}
}

func TestSetSessionsPrunesCards(t *testing.T) {
	m := New(&fakeAPI{})
	m.SetSessions([]api.Session{running("a", 1), exited("b")})
	if len(m.cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(m.cards))
	}

	m.SetSessions([]api.Session{running("a", 1)})
	if len(m.cards) != 1 {
		t.Fatalf("cards after prune = %d, want 1", len(m.cards))
	}
	if _, ok := m.cards["b"]; ok {
		t.Error("card for vanished session b not pruned")
	}
}

func TestRemoveSessionSplicesLocally(t *testing.T) {
	m := New(&fakeAPI{})
	m.SetSessions([]api.Session{running("a", 1), running("b", 2), running("c", 3)})

	m.RemoveSession("b")
	if len(m.sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(m.sessions))
	}
	for _, s := range m.sessions {
		if s.ID == "b" {
			t.Error("session b still present after removal")
		}
	}

	// Removing an unknown id is a no-op.
	m.RemoveSession("zzz")
	if len(m.sessions) != 2 {
		t.Error("removing unknown id changed the session array")
	}
}

func TestSpinnerStopsWhenNoCardIsKilling(t *testing.T) {
	fake := &fakeAPI{}
	m := New(fake)
	m.SetSessions([]api.Session{running("a", 1)})

	msgs := exec(m.KillSelected())
	if !m.spinning {
		t.Fatal("spinner not running during a kill")
	}

	// While the kill is in flight the tick reschedules itself.
	var cmd tea.Cmd
	m, cmd = m.Update(spinnerTickMsg{})
	if cmd == nil {
		t.Fatal("spinner tick stopped while a card is still killing")
	}

	// The kill completes; the next tick must stop and schedule nothing.
	res, ok := findMsg[killResultMsg](msgs)
	if !ok {
		t.Fatal("no killResultMsg")
	}
	m, _ = m.Update(res)
	m, cmd = m.Update(spinnerTickMsg{})
	if cmd != nil {
		t.Error("spinner tick rescheduled with no killing card left")
	}
	if m.spinning {
		t.Error("spinning flag not cleared after the last kill finished")
	}
}

func TestActivityDebounceRestartsPerEvent(t *testing.T) {
	m := New(&fakeAPI{})
	m.SetSessions([]api.Session{running("a", 1)})

	if cmd := m.MarkActivity("a"); cmd == nil {
		t.Fatal("first activity returned nil cmd")
	}
	firstGen := m.cards["a"].activityGen

	// A second event before the window expires restarts it.
	if cmd := m.MarkActivity("a"); cmd == nil {
		t.Fatal("second activity returned nil cmd")
	}

	// The first window's expiry is stale and must not clear the pulse.
	m, _ = m.Update(activityExpireMsg{id: "a", gen: firstGen})
	if !m.cards["a"].active {
		t.Error("stale expiry cleared a restarted pulse")
	}

	// The current window's expiry does clear it.
	m, _ = m.Update(activityExpireMsg{id: "a", gen: m.cards["a"].activityGen})
	if m.cards["a"].active {
		t.Error("current expiry did not clear the pulse")
	}
}

func TestMarkActivityIgnoresExited(t *testing.T) {
	m := New(&fakeAPI{})
	m.SetSessions([]api.Session{running("a", 1), exited("b")})

	if cmd := m.MarkActivity("b"); cmd != nil {
		t.Error("activity on an exited session returned a cmd")
	}
	if m.cards["b"].active {
		t.Error("exited card lit up")
	}

	if cmd := m.MarkActivity("a"); cmd == nil {
		t.Error("activity on a running session returned nil cmd")
	}
	if !m.cards["a"].active {
		t.Error("running card not lit up")
	}
}
