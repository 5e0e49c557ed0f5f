package logs

import "testing"

func TestParseBasicLine(t *testing.T) {
	entries := Parse("2024-01-01T00:00:00Z INFO [server] listening on :4020")
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Timestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("timestamp = %q", e.Timestamp)
	}
	if e.Level != "info" {
		t.Errorf("level = %q, want info (lowercased)", e.Level)
	}
	if e.Module != "server" {
		t.Errorf("module = %q, want server", e.Module)
	}
	if e.Message != "listening on :4020" {
		t.Errorf("message = %q", e.Message)
	}
	if e.IsClient {
		t.Error("IsClient = true for a server line")
	}
}

func TestParseClientPrefixAndContinuation(t *testing.T) {
	raw := "2024-01-01T00:00:00Z ERROR [CLIENT:app] boom\ncontinuation line"
	entries := Parse(raw)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != "error" {
		t.Errorf("level = %q, want error", e.Level)
	}
	if e.Module != "app" {
		t.Errorf("module = %q, want app (CLIENT: stripped)", e.Module)
	}
	if !e.IsClient {
		t.Error("IsClient = false, want true")
	}
	if e.Message != "boom\ncontinuation line" {
		t.Errorf("message = %q, continuation not joined", e.Message)
	}
}

func TestParseLeadingContinuationDropped(t *testing.T) {
	raw := "orphan line with no header\n2024-01-01T00:00:00Z WARN [mod] ok"
	entries := Parse(raw)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Message != "ok" {
		t.Errorf("message = %q, orphan leaked in", entries[0].Message)
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	raw := "2024-01-01T00:00:00Z INFO [a] one\n\n\n2024-01-01T00:00:01Z INFO [b] two\n"
	entries := Parse(raw)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Message != "one" || entries[1].Message != "two" {
		t.Errorf("blank lines merged into messages: %q / %q", entries[0].Message, entries[1].Message)
	}
}

func TestFilterLevelThreshold(t *testing.T) {
	entries := []Entry{
		{Level: "debug", Module: "a", Message: "d"},
		{Level: "info", Module: "a", Message: "i"},
		{Level: "warn", Module: "a", Message: "w"},
		{Level: "error", Module: "a", Message: "e"},
	}

	got := Filter(entries, "warn", false, false, "")
	if len(got) != 2 {
		t.Fatalf("warn threshold kept %d entries, want 2", len(got))
	}
	if got[0].Level != "warn" || got[1].Level != "error" {
		t.Errorf("kept %q and %q, want warn and error", got[0].Level, got[1].Level)
	}

	// Unknown level admits everything.
	if got := Filter(entries, "", false, false, ""); len(got) != 4 {
		t.Errorf("empty level kept %d entries, want 4", len(got))
	}
}

func TestFilterSourceAndQuery(t *testing.T) {
	entries := []Entry{
		{Level: "info", Module: "app", Message: "client side", IsClient: true},
		{Level: "info", Module: "server", Message: "server side"},
	}

	if got := Filter(entries, "", true, false, ""); len(got) != 1 || !got[0].IsClient {
		t.Errorf("clientOnly filter failed: %v", got)
	}
	if got := Filter(entries, "", false, true, ""); len(got) != 1 || got[0].IsClient {
		t.Errorf("serverOnly filter failed: %v", got)
	}

	// Query matches message or module, case-insensitively.
	if got := Filter(entries, "", false, false, "SERVER"); len(got) != 1 {
		t.Errorf("query by module failed: %v", got)
	}
	if got := Filter(entries, "", false, false, "client side"); len(got) != 1 {
		t.Errorf("query by message failed: %v", got)
	}
}
