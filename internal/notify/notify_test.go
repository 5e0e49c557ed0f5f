package notify

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vibetunnel/tui/internal/prefs"
)

type capture struct {
	mu     sync.Mutex
	titles []string
	prios  []string
}

func newNotifyServer(t *testing.T) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.titles = append(c.titles, r.Header.Get("Title"))
		c.prios = append(c.prios, r.Header.Get("Priority"))
		c.mu.Unlock()
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newStore(t *testing.T, enabled bool) *prefs.Store[prefs.NotificationPreferences] {
	t.Helper()
	s := prefs.NewStore(
		filepath.Join(t.TempDir(), prefs.NotificationPreferencesFile),
		prefs.DefaultNotificationPreferences())
	if enabled {
		v := s.Load()
		v.Enabled = true
		if err := s.Save(v); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestNotifierGatedByMasterSwitch(t *testing.T) {
	srv, c := newNotifyServer(t)
	n := New(srv.URL, "", newStore(t, false))

	n.SessionExit("build", 0)
	if len(c.titles) != 0 {
		t.Errorf("notification sent while disabled: %v", c.titles)
	}
}

func TestNotifierSendsWhenEnabled(t *testing.T) {
	srv, c := newNotifyServer(t)
	n := New(srv.URL, "", newStore(t, true))

	n.SessionExit("build", 0)
	n.SessionExit("build", 2)

	if len(c.titles) != 2 {
		t.Fatalf("notifications = %d, want 2", len(c.titles))
	}
	if c.titles[0] != "Session finished" {
		t.Errorf("title = %q", c.titles[0])
	}
	if c.prios[1] != "high" {
		t.Errorf("nonzero exit priority = %q, want high", c.prios[1])
	}
}

func TestNilNotifierNoOps(t *testing.T) {
	var n *Notifier
	// Must not panic.
	n.SessionStart("x")
	n.SessionExit("x", 1)
	n.SessionError("x", "boom")

	if New("", "", nil) != nil {
		t.Error("New with empty topic should return nil")
	}
}
