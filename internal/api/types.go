package api

import (
	"strings"
	"time"
)

// Session statuses as reported by the server.
const (
	StatusRunning = "running"
	StatusExited  = "exited"
)

// Session is one server-managed terminal session. Sessions are created
// and destroyed entirely server-side; the client only requests kill or
// cleanup and reflects the resulting list.
type Session struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Command      []string `json:"command"`
	WorkingDir   string   `json:"workingDir"`
	Status       string   `json:"status"`
	Active       *bool    `json:"active,omitempty"`
	PID          int      `json:"pid,omitempty"`
	StartedAt    string   `json:"startedAt,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
	ExitCode     *int     `json:"exitCode,omitempty"`
}

// DisplayName returns the session name, falling back to the command line.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if len(s.Command) > 0 {
		return strings.Join(s.Command, " ")
	}
	return s.ID
}

// StartedTime parses StartedAt as time.Time.
func (s Session) StartedTime() time.Time {
	t, err := time.Parse(time.RFC3339, s.StartedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AuthConfig describes which login methods the server accepts.
type AuthConfig struct {
	EnableSSHKeys        bool `json:"enableSSHKeys"`
	DisallowUserPassword bool `json:"disallowUserPassword"`
	NoAuth               bool `json:"noAuth"`
}

// FileInfo is one entry of a directory listing.
type FileInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"` // "file" or "directory"
	Size      int64  `json:"size"`
	ModTime   string `json:"modTime,omitempty"`
	GitStatus string `json:"gitStatus,omitempty"` // modified, added, deleted, untracked, unchanged
}

// IsDir reports whether the entry is a directory.
func (f FileInfo) IsDir() bool { return f.Type == "directory" }

// DirectoryListing is the server's view of one directory. AbsolutePath
// is the backend's expansion of Path; the client never computes it.
type DirectoryListing struct {
	AbsolutePath string     `json:"fullPath"`
	Path         string     `json:"path"`
	GitStatus    string     `json:"gitStatus,omitempty"`
	Files        []FileInfo `json:"files"`
}

// FilePreview is the content of a single file, fetched fresh per
// selection and never cached.
type FilePreview struct {
	Type     string `json:"type"` // "image", "text" or "binary"
	Content  string `json:"content,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// FileDiff is a git-style diff for one file.
type FileDiff struct {
	Path    string `json:"path"`
	Diff    string `json:"diff"`
	HasDiff bool   `json:"hasDiff"`
}

// LogInfo describes the server's log file.
type LogInfo struct {
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`
}

// ServerEvent kinds delivered over the event stream.
const (
	EventSessionStart   = "session-start"
	EventSessionExit    = "session-exit"
	EventSessionError   = "session-error"
	EventBufferActivity = "buffer-activity"
)

// ServerEvent is one event from the server's event stream.
type ServerEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Name      string `json:"sessionName,omitempty"`
	ExitCode  *int   `json:"exitCode,omitempty"`
	Message   string `json:"message,omitempty"`
}
