package filebrowser

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/vibetunnel/tui/internal/api"
)

type fakeFileAPI struct {
	mu       sync.Mutex
	browses  int
	previews int
	diffs    int

	listing api.DirectoryListing
	preview api.FilePreview
	diff    api.FileDiff
}

func (f *fakeFileAPI) Browse(ctx context.Context, path string, showHidden bool, gitFilter string) (api.DirectoryListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browses++
	return f.listing, nil
}

func (f *fakeFileAPI) Preview(ctx context.Context, path string) (api.FilePreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
	return f.preview, nil
}

func (f *fakeFileAPI) Diff(ctx context.Context, path string) (api.FileDiff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffs++
	return f.diff, nil
}

func exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestJoinPath(t *testing.T) {
	cases := []struct {
		dir, name, want string
	}{
		{"/home/user", "file.txt", "/home/user/file.txt"},
		{"/home/user/", "file.txt", "/home/user/file.txt"},
		{"/", "etc", "/etc"},
		{"", "file.txt", "file.txt"},
	}
	for _, c := range cases {
		if got := JoinPath(c.dir, c.name); got != c.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", c.dir, c.name, got, c.want)
		}
	}
}

func TestListingReplacesStateWholesale(t *testing.T) {
	m := New(&fakeFileAPI{})

	listing := api.DirectoryListing{
		Path:         "/home/user",
		AbsolutePath: "/home/user",
		Files: []api.FileInfo{
			{Name: "docs", Type: "directory", Path: "/home/user/docs"},
			{Name: "a.txt", Type: "file", Path: "/home/user/a.txt", Size: 10},
		},
	}
	m, _ = m.Update(listingLoadedMsg{listing: listing})

	// ".." pseudo-entry first, then the files.
	if len(m.entries) != 3 {
		t.Fatalf("entries = %d, want 3 (.. + 2 files)", len(m.entries))
	}
	if m.entries[0].Name != ".." {
		t.Errorf("first entry = %q, want ..", m.entries[0].Name)
	}

	// Preview state resets on navigation.
	m.state = previewShowing
	m.selected = "/home/user/a.txt"
	m, _ = m.Update(listingLoadedMsg{listing: api.DirectoryListing{Path: "/tmp", Files: nil}})
	if m.state != previewNone || m.selected != "" {
		t.Error("navigation did not reset the preview state")
	}
}

func TestRootListingHasNoParentEntry(t *testing.T) {
	m := New(&fakeFileAPI{})
	m, _ = m.Update(listingLoadedMsg{listing: api.DirectoryListing{
		Path:  "/",
		Files: []api.FileInfo{{Name: "etc", Type: "directory", Path: "/etc"}},
	}})
	if len(m.entries) != 1 || m.entries[0].Name != "etc" {
		t.Errorf("root listing entries = %v, want just etc", m.entries)
	}
}

func TestPreviewThenDiffToggle(t *testing.T) {
	fake := &fakeFileAPI{
		preview: api.FilePreview{Type: "text", Content: "hello"},
		diff:    api.FileDiff{Diff: "+new line", HasDiff: true},
	}
	m := New(fake)

	entry := api.FileInfo{Name: "a.txt", Type: "file", Path: "/p/a.txt", GitStatus: "modified"}
	cmd := m.loadPreview(entry)
	if m.state != previewLoading {
		t.Fatalf("state = %v, want loading", m.state)
	}
	m, _ = m.Update(exec(cmd).(previewLoadedMsg))
	if m.state != previewShowing {
		t.Fatalf("state = %v, want showing", m.state)
	}

	// preview → diff
	m, cmd = m.toggleDiff()
	if cmd == nil {
		t.Fatal("diff toggle on a modified file returned nil cmd")
	}
	m, _ = m.Update(exec(cmd).(diffLoadedMsg))
	if m.state != previewDiff {
		t.Fatalf("state = %v, want diff", m.state)
	}
	if fake.diffs != 1 {
		t.Fatalf("diff fetches = %d, want 1", fake.diffs)
	}

	// diff → preview refetches instead of reusing stale content.
	m, cmd = m.toggleDiff()
	if cmd == nil {
		t.Fatal("toggling back to preview returned nil cmd")
	}
	m, _ = m.Update(exec(cmd).(previewLoadedMsg))
	if m.state != previewShowing {
		t.Fatalf("state = %v, want showing after toggling back", m.state)
	}
	if fake.previews != 2 {
		t.Fatalf("preview fetches = %d, want 2", fake.previews)
	}

	// The git status survived the round trip, so diff works again.
	m, cmd = m.toggleDiff()
	if cmd == nil {
		t.Fatal("second diff toggle returned nil cmd, git status was lost")
	}
}

func TestDiffToggleRequiresChangedFile(t *testing.T) {
	fake := &fakeFileAPI{preview: api.FilePreview{Type: "text", Content: "x"}}
	m := New(fake)

	entry := api.FileInfo{Name: "a.txt", Type: "file", Path: "/p/a.txt", GitStatus: "unchanged"}
	m, _ = m.Update(exec(m.loadPreview(entry)).(previewLoadedMsg))

	if _, cmd := m.toggleDiff(); cmd != nil {
		t.Error("diff toggle on an unchanged file returned a cmd")
	}
	if fake.diffs != 0 {
		t.Errorf("diff fetches = %d, want 0", fake.diffs)
	}
}

func TestStalePreviewResultIgnored(t *testing.T) {
	fake := &fakeFileAPI{preview: api.FilePreview{Type: "text", Content: "x"}}
	m := New(fake)

	entryA := api.FileInfo{Name: "a.txt", Type: "file", Path: "/p/a.txt"}
	entryB := api.FileInfo{Name: "b.txt", Type: "file", Path: "/p/b.txt", GitStatus: "modified"}

	// Select A, then B before A's response lands.
	cmdA := m.loadPreview(entryA)
	cmdB := m.loadPreview(entryB)

	// A's late response must not rewind the selection or show A.
	m, _ = m.Update(exec(cmdA).(previewLoadedMsg))
	if m.selected != "/p/b.txt" {
		t.Fatalf("selected = %q, stale preview rewound the selection", m.selected)
	}
	if m.state != previewLoading {
		t.Fatalf("state = %v, want still loading B", m.state)
	}

	// B's response lands normally and the diff toggle still keys off B.
	m, _ = m.Update(exec(cmdB).(previewLoadedMsg))
	if m.state != previewShowing {
		t.Fatalf("state = %v, want showing", m.state)
	}
	if _, cmd := m.toggleDiff(); cmd == nil {
		t.Error("diff toggle broken after a stale preview arrived")
	}
}

func TestStaleDiffResultIgnored(t *testing.T) {
	fake := &fakeFileAPI{preview: api.FilePreview{Type: "text", Content: "x"}}
	m := New(fake)

	entry := api.FileInfo{Name: "a.txt", Type: "file", Path: "/p/a.txt", GitStatus: "modified"}
	m, _ = m.Update(exec(m.loadPreview(entry)).(previewLoadedMsg))

	// A diff for a path the user has already navigated away from.
	m, _ = m.Update(diffLoadedMsg{path: "/p/other.txt", diff: api.FileDiff{HasDiff: true, Diff: "+x"}})
	if m.state != previewShowing {
		t.Errorf("state = %v, stale diff result must not change the view", m.state)
	}
}

func TestBannerGenerationGuard(t *testing.T) {
	m := New(&fakeFileAPI{})

	m.showBanner("first")
	cmd := m.showBanner("second")
	if m.banner != "second" {
		t.Fatalf("banner = %q, want second", m.banner)
	}

	// The first banner's expiry must not clear the second banner.
	m, _ = m.Update(bannerExpireMsg{gen: m.bannerGen - 1})
	if m.banner != "second" {
		t.Error("stale expiry cleared the current banner")
	}
	_ = cmd
	m, _ = m.Update(bannerExpireMsg{gen: m.bannerGen})
	if m.banner != "" {
		t.Error("current expiry did not clear the banner")
	}
}
