// Package api exposes sessions over HTTP: create a session, feed it input,
// run toolbar commands, export the canvas and ask for an analysis.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/session"
	"github.com/sketchify/sketchify/backend-go/internal/snapshot"
	"github.com/sketchify/sketchify/backend-go/internal/stream"
	"github.com/sketchify/sketchify/backend-go/internal/typeid"
)

const maxBodySize = 1 << 20

var ErrForbidden = errors.New("token does not grant access to this session")

type Handler struct {
	sessions  *session.Manager
	tokens    *session.Tokens
	exporter  *session.Exporter
	snapshots *snapshot.Store
	hub       *stream.Hub
	origins   []string
}

// Deps are the services the handler is built from. Origins are websocket
// origin patterns (host[:port], no scheme).
type Deps struct {
	Sessions  *session.Manager
	Tokens    *session.Tokens
	Exporter  *session.Exporter
	Snapshots *snapshot.Store
	Hub       *stream.Hub
	Origins   []string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		sessions:  d.Sessions,
		tokens:    d.Tokens,
		exporter:  d.Exporter,
		snapshots: d.Snapshots,
		hub:       d.Hub,
		origins:   d.Origins,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.PathPrefix("/snapshots/").Handler(h.snapshots.Serve()).Methods("GET")

	api := r.PathPrefix("/sessions/{sessionId}").Subrouter()
	api.Use(h.tokens.Middleware)

	api.HandleFunc("", h.GetSession).Methods("GET")
	api.HandleFunc("", h.DeleteSession).Methods("DELETE")
	api.HandleFunc("/scene", h.GetScene).Methods("GET")
	api.HandleFunc("/draw", h.GetDrawCommands).Methods("GET")
	api.HandleFunc("/state", h.UpdateState).Methods("PATCH")
	api.HandleFunc("/events", h.PostEvents).Methods("POST")
	api.HandleFunc("/commands", h.PostCommand).Methods("POST")
	api.HandleFunc("/export.{format:png|pdf}", h.Export).Methods("GET")
	api.HandleFunc("/snapshots", h.CreateSnapshot).Methods("POST")
	api.HandleFunc("/snapshots/{snapshotId}", h.DeleteSnapshot).Methods("DELETE")
	api.HandleFunc("/analysis", h.Analyze).Methods("POST")
	api.HandleFunc("/analysis", h.AnalysisStatus).Methods("GET")

	ws := r.PathPrefix("/ws/sessions/{sessionId}").Subrouter()
	ws.Use(h.tokens.Middleware)
	ws.HandleFunc("", h.WebSocket)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

type createRequest struct {
	Sample bool          `json:"sample"`
	State  *editor.State `json:"state,omitempty"`
}

type createResponse struct {
	Session sessionInfo   `json:"session"`
	Token   string        `json:"token"`
	Frame   session.Frame `json:"frame"`
}

type sessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
	Connected bool      `json:"connected"`
}

func (h *Handler) info(s *session.Session) sessionInfo {
	return sessionInfo{
		ID:        s.ID,
		CreatedAt: s.Created,
		LastSeen:  s.LastSeen(),
		Connected: h.hub.Connected(s.ID),
	}
}

// CreateSession opens a session. The body is optional.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.State != nil {
		if err := req.State.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	s := h.sessions.Create()
	token, err := h.tokens.Issue(s.ID)
	if err != nil {
		h.sessions.Delete(s.ID)
		slog.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var frame session.Frame
	s.Do(func(e *editor.Editor) {
		if req.State != nil {
			e.SetState(*req.State)
		}
		if req.Sample {
			e.LoadScene(scene.NewSampleScene())
		}
		frame = session.NewFrame(e)
	})

	writeJSON(w, http.StatusCreated, createResponse{Session: h.info(s), Token: token, Frame: frame})
}

type sessionResponse struct {
	Session  sessionInfo     `json:"session"`
	Frame    session.Frame   `json:"frame"`
	Analysis analysis.Status `json:"analysis"`
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session:  h.info(s),
		Frame:    s.Frame(),
		Analysis: s.Panel().Status(),
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Delete(s.ID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetScene returns the logical scene, independent of the view.
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Capture().Scene)
}

// GetDrawCommands returns the display list for the current view.
func (h *Handler) GetDrawCommands(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	f := s.Frame()
	writeJSON(w, http.StatusOK, map[string]interface{}{"commands": f.Commands})
}

func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var st editor.State
	if err := decodeBody(w, r, &st); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, s, session.Command{Name: session.CmdSetState, State: &st})
}

type eventsRequest struct {
	Events []editor.Event `json:"events"`
}

// PostEvents feeds input events to the editor in order and returns the
// resulting frame.
func (h *Handler) PostEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req eventsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var frame session.Frame
	s.Do(func(e *editor.Editor) {
		for _, ev := range req.Events {
			e.HandleEvent(ev)
		}
		frame = session.NewFrame(e)
	})
	writeJSON(w, http.StatusOK, frame)
}

func (h *Handler) PostCommand(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var cmd session.Command
	if err := decodeBody(w, r, &cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, s, cmd)
}

func (h *Handler) apply(w http.ResponseWriter, s *session.Session, cmd session.Command) {
	var (
		frame session.Frame
		err   error
	)
	s.Do(func(e *editor.Editor) {
		if _, err = cmd.Apply(e); err == nil {
			frame = session.NewFrame(e)
		}
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// Export renders the canvas as PNG or PDF. Query: width, height, invert, fit.
// invert defaults to the session's dark mode.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	format := mux.Vars(r)["format"]

	c := s.Capture()
	opts, err := exportOptions(r, c)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	data, err := h.render(c, format, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", snapshot.Formats[format].ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sketchify-drawing.%s"`, format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type snapshotRequest struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Invert *bool  `json:"invert,omitempty"`
	Fit    bool   `json:"fit"`
}

// CreateSnapshot renders the canvas and stores it under a shareable URL.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req snapshotRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Format == "" {
		req.Format = "png"
	}
	if _, ok := snapshot.Formats[req.Format]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be png or pdf"})
		return
	}

	c := s.Capture()
	opts := session.ExportOptions{Width: req.Width, Height: req.Height, Invert: c.State.DarkMode, Fit: req.Fit}
	if req.Invert != nil {
		opts.Invert = *req.Invert
	}

	data, err := h.render(c, req.Format, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = h.exporter.Width
	}
	if height == 0 {
		height = h.exporter.Height
	}
	info, err := h.snapshots.Save(s.ID, req.Format, data, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["snapshotId"]
	if err := typeid.Validate(id, typeid.PrefixSnapshot); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot id"})
		return
	}
	if err := h.snapshots.Delete(s.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

// Analyze sends the canvas and prompt to the analysis service and waits for
// the answer.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := s.Panel().Analyze(r.Context(), h.exporter.AnalysisRequest(s, req.Prompt))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) AnalysisStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Panel().Status())
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, s.ID, h.origins)
}

// session resolves the {sessionId} route variable and checks it against the
// token subject.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := mux.Vars(r)["sessionId"]
	if session.SessionIDFromContext(r.Context()) != id {
		handleServiceError(w, ErrForbidden)
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) render(c session.Capture, format string, opts session.ExportOptions) ([]byte, error) {
	if format == "pdf" {
		return h.exporter.PDF(c, opts)
	}
	return h.exporter.PNG(c, opts)
}

func exportOptions(r *http.Request, c session.Capture) (session.ExportOptions, error) {
	q := r.URL.Query()
	opts := session.ExportOptions{Invert: c.State.DarkMode}

	var err error
	if v := q.Get("width"); v != "" {
		if opts.Width, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("invalid width %q", v)
		}
	}
	if v := q.Get("height"); v != "" {
		if opts.Height, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("invalid height %q", v)
		}
	}
	if v := q.Get("invert"); v != "" {
		if opts.Invert, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid invert %q", v)
		}
	}
	if v := q.Get("fit"); v != "" {
		if opts.Fit, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid fit %q", v)
		}
	}
	return opts, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, snapshot.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case analysis.IsValidationError(err),
		editor.IsInvalidState(err),
		errors.Is(err, session.ErrUnknownCommand),
		errors.Is(err, session.ErrInvalidCommand),
		errors.Is(err, session.ErrExportSize),
		errors.Is(err, render.ErrInvalidSize):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, analysis.ErrAnalysisInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, analysis.ErrAnalysisFailed):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
