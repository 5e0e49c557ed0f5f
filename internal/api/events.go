package api

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
)

// EventMsg is sent when the server pushes an event over the stream.
type EventMsg struct {
	Event ServerEvent
}

// EventsClosedMsg is sent once when the event stream drops. The stream
// keeps retrying in the background; the app should fall back to polling
// until the next EventMsg arrives.
type EventsClosedMsg struct {
	Err error
}

// Sender can receive messages (matches *tea.Program).
type Sender interface {
	Send(msg tea.Msg)
}

const (
	eventsPath     = "/api/events"
	eventsRetryMin = time.Second
	eventsRetryMax = 30 * time.Second
)

// EventStream subscribes to the server's event stream and forwards
// events as tea messages.
type EventStream struct {
	client *Client
	sender Sender
	cancel context.CancelFunc
}

// NewEventStream starts streaming events in the background. Close stops it.
func NewEventStream(client *Client, sender Sender) *EventStream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &EventStream{client: client, sender: sender, cancel: cancel}
	go s.loop(ctx)
	return s
}

// Close stops the stream.
func (s *EventStream) Close() {
	s.cancel()
}

func (s *EventStream) loop(ctx context.Context) {
	retry := eventsRetryMin
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		s.sender.Send(EventsClosedMsg{Err: err})

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
		retry *= 2
		if retry > eventsRetryMax {
			retry = eventsRetryMax
		}
	}
}

// consume opens one stream connection and forwards events until it ends.
func (s *EventStream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.baseURL+eventsPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if s.client.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.client.token)
	}

	// Streaming connection: the client's default timeout would cut it
	// off, so use a transport-only client here.
	httpc := &http.Client{}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				s.dispatch(eventType, data.String())
			}
			eventType = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(line[len("data:"):]))
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		}
	}
	return scanner.Err()
}

func (s *EventStream) dispatch(eventType, data string) {
	var ev ServerEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		log.Printf("events: skip malformed event: %v", err)
		return
	}
	if ev.Type == "" {
		ev.Type = eventType
	}
	if ev.Type == "" {
		return
	}
	s.sender.Send(EventMsg{Event: ev})
}
