package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/session"
	"github.com/sketchify/sketchify/backend-go/internal/snapshot"
	"github.com/sketchify/sketchify/backend-go/internal/stream"
)

type stubAnalysis struct {
	text string
	err  error
}

func (s *stubAnalysis) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	if _, err := png.Decode(bytes.NewReader(image)); err != nil {
		return "", err
	}
	return s.text, s.err
}

type testEnv struct {
	router   *mux.Router
	analysis *stubAnalysis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fonts, err := render.NewFontBook()
	if err != nil {
		t.Fatal(err)
	}
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	stub := &stubAnalysis{text: "a rectangle"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(session.Options{Measurer: fonts, Analysis: stub}, logger)
	exporter := &session.Exporter{Rasterizer: render.NewRasterizer(fonts), Measurer: fonts, Width: 64, Height: 48}

	h := NewHandler(Deps{
		Sessions:  sessions,
		Tokens:    session.NewTokens("test-secret", time.Hour),
		Exporter:  exporter,
		Snapshots: store,
		Hub:       stream.NewHub(sessions, exporter),
	})
	r := mux.NewRouter()
	h.Register(r)
	return &testEnv{router: r, analysis: stub}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) create(t *testing.T, body interface{}) createResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/sessions", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeFrame(t *testing.T, rec *httptest.ResponseRecorder) session.Frame {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var f session.Frame
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatal(err)
	}
	return f
}

// drawRect draws a 20x20 rectangle through the HTTP API.
func (env *testEnv) drawRect(t *testing.T, c createResponse) {
	t.Helper()
	base := "/sessions/" + c.Session.ID
	decodeFrame(t, env.do(t, http.MethodPost, base+"/commands", c.Token,
		session.Command{Name: session.CmdSetTool, Tool: editor.ToolRectangle}))
	f := decodeFrame(t, env.do(t, http.MethodPost, base+"/events", c.Token, eventsRequest{Events: []editor.Event{
		{Kind: editor.PointerDown, X: 10, Y: 10},
		{Kind: editor.PointerMove, X: 30, Y: 30},
		{Kind: editor.PointerUp},
	}}))
	if len(f.Commands) != 1 {
		t.Fatalf("commands after drawing = %d", len(f.Commands))
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	c := env.create(t, nil)
	if !strings.HasPrefix(c.Session.ID, "sess_") || c.Token == "" {
		t.Errorf("create = %+v", c)
	}
	if c.Frame.State.Tool != editor.ToolPen || len(c.Frame.Commands) != 0 {
		t.Errorf("initial frame = %+v", c.Frame)
	}

	sample := env.create(t, createRequest{Sample: true})
	if len(sample.Frame.Commands) == 0 || !sample.Frame.History.CanUndo {
		t.Errorf("sample frame = %+v", sample.Frame)
	}

	bad := editor.DefaultState()
	bad.Tool = "laser"
	if rec := env.do(t, http.MethodPost, "/sessions", "", createRequest{State: &bad}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid state status = %d", rec.Code)
	}
}

func TestSessionAccess(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, nil)
	b := env.create(t, nil)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"own session", "/sessions/" + a.Session.ID, a.Token, http.StatusOK},
		{"no token", "/sessions/" + a.Session.ID, "", http.StatusUnauthorized},
		{"other session token", "/sessions/" + a.Session.ID, b.Token, http.StatusForbidden},
		{"bad token", "/sessions/" + a.Session.ID, "garbage", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodGet, tt.path, tt.token, nil); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	path := "/sessions/" + c.Session.ID

	if rec := env.do(t, http.MethodDelete, path, c.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, path, c.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestEventsAndCommands(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	base := "/sessions/" + c.Session.ID
	env.drawRect(t, c)

	rec := env.do(t, http.MethodGet, base+"/scene", c.Token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"rectangle"`) {
		t.Errorf("scene = %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, base+"/draw", c.Token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"shape:0"`) {
		t.Errorf("draw = %d %s", rec.Code, rec.Body.String())
	}

	f := decodeFrame(t, env.do(t, http.MethodPost, base+"/commands", c.Token, session.Command{Name: session.CmdUndo}))
	if len(f.Commands) != 0 || !f.History.CanRedo {
		t.Errorf("after undo = %+v", f)
	}
	f = decodeFrame(t, env.do(t, http.MethodPost, base+"/commands", c.Token, session.Command{Name: session.CmdRedo}))
	if len(f.Commands) != 1 {
		t.Errorf("after redo commands = %d", len(f.Commands))
	}
	f = decodeFrame(t, env.do(t, http.MethodPost, base+"/commands", c.Token, session.Command{Name: session.CmdZoomIn}))
	if f.View.Scale <= 1 {
		t.Errorf("scale after zoom in = %v", f.View.Scale)
	}

	for _, cmd := range []session.Command{{Name: "explode"}, {Name: session.CmdSetView}, {Name: session.CmdSetTool, Tool: "laser"}} {
		if rec := env.do(t, http.MethodPost, base+"/commands", c.Token, cmd); rec.Code != http.StatusBadRequest {
			t.Errorf("command %q status = %d", cmd.Name, rec.Code)
		}
	}
}

func TestUpdateState(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	path := "/sessions/" + c.Session.ID + "/state"

	st := editor.DefaultState()
	st.DarkMode = true
	st.BrushSize = 4
	f := decodeFrame(t, env.do(t, http.MethodPatch, path, c.Token, st))
	if !f.State.DarkMode || f.State.BrushSize != 4 {
		t.Errorf("state = %+v", f.State)
	}

	st.BrushSize = 0
	if rec := env.do(t, http.MethodPatch, path, c.Token, st); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid state status = %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	base := "/sessions/" + c.Session.ID
	env.drawRect(t, c)

	rec := env.do(t, http.MethodGet, base+"/export.png", c.Token, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("default size = %v", b)
	}

	rec = env.do(t, http.MethodGet, base+"/export.png?width=32&height=16&invert=true", c.Token, nil)
	img, err = png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("sized export = %v", b)
	}

	rec = env.do(t, http.MethodGet, base+"/export.pdf", c.Token, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Errorf("pdf = %d %.10q", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sketchify-drawing.pdf") {
		t.Errorf("content-disposition = %q", cd)
	}

	for _, q := range []string{"?width=abc", "?width=-5", "?height=100000", "?invert=maybe", "?fit=2"} {
		if rec := env.do(t, http.MethodGet, base+"/export.png"+q, c.Token, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("export%s status = %d", q, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, base+"/export.gif", c.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("gif status = %d", rec.Code)
	}
}

func TestSnapshots(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	base := "/sessions/" + c.Session.ID
	env.drawRect(t, c)

	rec := env.do(t, http.MethodPost, base+"/snapshots", c.Token, snapshotRequest{Format: "png"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create snapshot = %d %s", rec.Code, rec.Body.String())
	}
	var info snapshot.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.SessionID != c.Session.ID || info.Width != 64 || info.Height != 48 {
		t.Errorf("info = %+v", info)
	}

	rec = env.do(t, http.MethodGet, info.URL, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve snapshot = %d", rec.Code)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("decode snapshot: %v", err)
	}

	if rec := env.do(t, http.MethodPost, base+"/snapshots", c.Token, snapshotRequest{Format: "gif"}); rec.Code != http.StatusBadRequest {
		t.Errorf("gif snapshot status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, base+"/snapshots/"+info.ID, c.Token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete snapshot = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, base+"/snapshots/"+info.ID, c.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, base+"/snapshots/nope", c.Token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id delete = %d", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, nil)
	base := "/sessions/" + c.Session.ID

	rec := env.do(t, http.MethodPost, base+"/analysis", c.Token, analyzeRequest{Prompt: "what is it?"})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Please draw something first") {
		t.Errorf("empty canvas = %d %s", rec.Code, rec.Body.String())
	}

	env.drawRect(t, c)

	rec = env.do(t, http.MethodPost, base+"/analysis", c.Token, analyzeRequest{Prompt: "  "})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Please enter a prompt") {
		t.Errorf("blank prompt = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, base+"/analysis", c.Token, analyzeRequest{Prompt: "what is it?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze = %d %s", rec.Code, rec.Body.String())
	}
	var res analysis.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Text != "a rectangle" {
		t.Errorf("result = %+v", res)
	}

	rec = env.do(t, http.MethodGet, base+"/analysis", c.Token, nil)
	var st analysis.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != analysis.StateResolved || st.Last == nil || st.Last.Text != "a rectangle" {
		t.Errorf("status = %+v", st)
	}

	env.analysis.err = errors.New("quota exceeded")
	rec = env.do(t, http.MethodPost, base+"/analysis", c.Token, analyzeRequest{Prompt: "what is it?"})
	if rec.Code != http.StatusBadGateway || strings.Contains(rec.Body.String(), "quota") {
		t.Errorf("failed analysis = %d %s", rec.Code, rec.Body.String())
	}
}
