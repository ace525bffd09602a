// Package snapshot stores exported canvases on disk and serves them back
// under stable, immutable URLs.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sketchify/sketchify/backend-go/internal/typeid"
)

var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrUnknownFormat = errors.New("unknown snapshot format")
)

// Formats maps a format name to its file extension and content type.
var Formats = map[string]struct{ Ext, ContentType string }{
	"png": {".png", "image/png"},
	"pdf": {".pdf", "application/pdf"},
}

// Info describes a stored snapshot.
type Info struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store writes snapshot files into a single directory. It remembers which
// session saved each snapshot so only that session may delete it, and drops
// a session's snapshots when the session goes away.
type Store struct {
	dir string

	mu     sync.Mutex
	owners map[string]string // snapshotID -> sessionID
}

// NewStore creates a store that keeps files in dir. Snapshots left by a
// previous run have no live session to own them and are removed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	stale, err := filepath.Glob(filepath.Join(dir, typeid.PrefixSnapshot+"_*"))
	if err != nil {
		return nil, fmt.Errorf("scan snapshot dir: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			slog.Warn("remove stale snapshot", "path", path, "error", err)
		}
	}
	if len(stale) > 0 {
		slog.Info("stale snapshots removed", "count", len(stale))
	}
	return &Store{dir: dir, owners: make(map[string]string)}, nil
}

// Save writes data under a fresh snapshot ID.
func (s *Store) Save(sessionID, format string, data []byte, width, height int) (Info, error) {
	f, ok := Formats[format]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	id := typeid.NewSnapshotID()
	filename := id + f.Ext
	path := filepath.Join(s.dir, filename)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return Info{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("write snapshot: %w", err)
	}

	s.mu.Lock()
	s.owners[id] = sessionID
	s.mu.Unlock()

	slog.Info("snapshot saved", "id", id, "session", sessionID, "format", format, "bytes", len(data))
	return Info{
		ID:        id,
		SessionID: sessionID,
		URL:       fmt.Sprintf("/snapshots/%s", filename),
		Format:    format,
		Width:     width,
		Height:    height,
		Size:      len(data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Delete removes the files of a snapshot saved by sessionID.
func (s *Store) Delete(sessionID, id string) error {
	s.mu.Lock()
	owner, ok := s.owners[id]
	if ok && owner == sessionID {
		delete(s.owners, id)
	}
	s.mu.Unlock()
	if !ok || owner != sessionID {
		return ErrNotFound
	}

	s.removeFiles(id)
	slog.Info("snapshot deleted", "id", id, "session", sessionID)
	return nil
}

// RemoveSession deletes every snapshot saved by sessionID.
func (s *Store) RemoveSession(sessionID string) {
	var ids []string
	s.mu.Lock()
	for id, owner := range s.owners {
		if owner == sessionID {
			ids = append(ids, id)
			delete(s.owners, id)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.removeFiles(id)
	}
	if len(ids) > 0 {
		slog.Info("session snapshots deleted", "session", sessionID, "count", len(ids))
	}
}

func (s *Store) removeFiles(id string) {
	for _, f := range Formats {
		os.Remove(filepath.Join(s.dir, id+f.Ext))
	}
}

// Serve returns an http.Handler that serves stored files with caching headers.
func (s *Store) Serve() http.Handler {
	fs := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix("/snapshots/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Snapshot IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
