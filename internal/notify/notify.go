// Package notify sends session lifecycle events to an ntfy topic.
// Everything here is best effort: failures are logged, never surfaced.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vibetunnel/tui/internal/prefs"
)

// Notifier posts notifications gated by the notification preference
// domain. A nil Notifier, or one with no topic, silently no-ops.
type Notifier struct {
	url   string // full URL: https://ntfy.sh/{topic}
	token string // optional bearer token for reserved topics
	store *prefs.Store[prefs.NotificationPreferences]
}

// New creates a notifier. Topic can be a bare topic name (expanded to
// https://ntfy.sh/{topic}) or a full URL.
func New(topic, token string, store *prefs.Store[prefs.NotificationPreferences]) *Notifier {
	if topic == "" {
		return nil
	}
	url := topic
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		url = "https://ntfy.sh/" + topic
	}
	return &Notifier{url: url, token: token, store: store}
}

// SessionStart announces a new session.
func (n *Notifier) SessionStart(name string) {
	if n == nil {
		return
	}
	p := n.store.Load()
	if !p.Enabled || !p.SessionStart {
		return
	}
	n.post("Session started", name, "default", "arrow_forward")
}

// SessionExit announces a finished session.
func (n *Notifier) SessionExit(name string, exitCode int) {
	if n == nil {
		return
	}
	p := n.store.Load()
	if !p.Enabled || !p.SessionExit {
		return
	}
	if exitCode == 0 {
		n.post("Session finished", name, "default", "white_check_mark")
	} else {
		n.post(fmt.Sprintf("Session exited (%d)", exitCode), name, "high", "x")
	}
}

// SessionError announces a session failure.
func (n *Notifier) SessionError(name, msg string) {
	if n == nil {
		return
	}
	p := n.store.Load()
	if !p.Enabled || !p.SessionError {
		return
	}
	body := name
	if msg != "" {
		body = name + ": " + msg
	}
	n.post("Session error", body, "high", "rotating_light")
}

func (n *Notifier) post(title, body, priority, tags string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBufferString(body))
	if err != nil {
		log.Printf("notify: build request: %v", err)
		return
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("notify: post failed: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("notify: HTTP %d", resp.StatusCode)
	}
}
