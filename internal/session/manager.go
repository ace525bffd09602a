// Package session hosts editors on the server: one Editor per session, each
// behind its own lock, plus the tokens that grant access to it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/typeid"
)

var ErrNotFound = errors.New("session not found")

// Session is one open editor. All access to the editor goes through Do, which
// serializes it.
type Session struct {
	ID      string
	Created time.Time

	mu     sync.Mutex
	editor *editor.Editor
	panel  *analysis.Panel

	lastSeen atomic.Int64 // unix nanos
	now      func() time.Time
}

// Do runs fn with exclusive access to the editor.
func (s *Session) Do(fn func(e *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	fn(s.editor)
}

// Frame is everything a display needs after a change: the draw commands
// plus the editor status.
type Frame struct {
	Commands []render.DrawCommand `json:"commands"`
	editor.Status
}

// NewFrame builds a frame from the editor. The caller must hold the session.
func NewFrame(e *editor.Editor) Frame {
	return Frame{
		Commands: render.Compile(e.Scene(), e.View()),
		Status:   e.Status(),
	}
}

// Frame returns a frame for the current editor state.
func (s *Session) Frame() Frame {
	var f Frame
	s.Do(func(e *editor.Editor) { f = NewFrame(e) })
	return f
}

// Capture is a consistent copy of a session's canvas, safe to use outside
// the session lock.
type Capture struct {
	Scene *scene.Scene
	State editor.State
	View  geom.ViewTransform
}

// Capture deep-copies the scene together with the view and state it is
// displayed under.
func (s *Session) Capture() Capture {
	var c Capture
	s.Do(func(e *editor.Editor) {
		c = Capture{Scene: e.Snapshot(), State: e.State(), View: e.View()}
	})
	return c
}

func (s *Session) Panel() *analysis.Panel {
	return s.panel
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

// Options configures the sessions a Manager creates.
type Options struct {
	HistoryLimit int
	// TTL is how long an untouched session survives; zero disables reaping.
	TTL      time.Duration
	Measurer scene.TextMeasurer
	Analysis analysis.Client
	Now      func() time.Time
}

// Manager owns the live sessions.
type Manager struct {
	opts   Options
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	onRemove []func(id string)
}

func NewManager(opts Options, logger *slog.Logger) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// OnRemove registers fn to run after a session is deleted or reaped.
func (m *Manager) OnRemove(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = append(m.onRemove, fn)
}

// Create opens a new session with an empty canvas.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:      typeid.NewSessionID(),
		Created: m.opts.Now(),
		editor: editor.New(editor.Options{
			HistoryLimit: m.opts.HistoryLimit,
			Measurer:     m.opts.Measurer,
			Now:          m.opts.Now,
		}),
		panel: analysis.NewPanel(m.opts.Analysis, m.logger),
		now:   m.opts.Now,
	}
	s.touch()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session", s.ID)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	hooks := m.onRemove
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	m.logger.Info("session deleted", "session", id)
	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap deletes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Reap() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.TTL)

	var expired []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if m.Delete(id) == nil {
			n++
		}
	}
	if n > 0 {
		m.logger.Info("reaped idle sessions", "count", n)
	}
	return n
}

// Run reaps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.opts.TTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}
