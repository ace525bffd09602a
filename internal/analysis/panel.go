// Package analysis sends a rendered canvas and a user prompt to a generative
// AI service and tracks the single request a panel may have in flight.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sketchify/sketchify/backend-go/internal/typeid"
)

// User-visible errors.
var (
	ErrEmptyPrompt      = errors.New("Please enter a prompt")
	ErrNothingDrawn     = errors.New("Please draw something first")
	ErrAnalysisFailed   = errors.New("Error analyzing drawing. Please try again.")
	ErrAnalysisInFlight = errors.New("An analysis is already in progress")
)

// Client is the remote analysis service.
type Client interface {
	Analyze(ctx context.Context, image []byte, prompt string) (string, error)
}

// FormatPrompt wraps the user's prompt in the instructions that ask for a
// structured answer.
func FormatPrompt(prompt string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(prompt))
}

const promptTemplate = `Analyze this drawing based on the user's prompt. Keep your response clean and properly formatted like this:

**Main Analysis:**
Provide a clear and direct answer to the user's question. Format mathematical expressions properly.
- If using equations, write them clearly
- Use proper spacing and formatting
- Make sure all expressions are complete
- Make sure the response is complete sentences
- Make sure the response is grammatically correct
- Make sure the response is easy to understand

**Conclusion:**
A brief, clear summary of the analysis with:
- The final answer in **bold**
- All mathematical expressions properly closed
- Make sure the response is complete sentences
- Make sure the response is grammatically correct
- Make sure the response is easy to understand

Keep everything properly formatted and easy to read.

User's prompt: %s`

// State is the lifecycle of a panel's most recent request.
type State string

const (
	StateIdle     State = "idle"
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateRejected State = "rejected"
)

// Result is one finished analysis.
type Result struct {
	ID       string        `json:"id"`
	Prompt   string        `json:"prompt"`
	Text     string        `json:"text,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Status reports the panel state and the last finished result.
type Status struct {
	State State   `json:"state"`
	Last  *Result `json:"last,omitempty"`
}

// Request is one analysis submission. Render is only called once validation
// has passed.
type Request struct {
	Prompt string
	// Drawn reports whether the canvas has anything on it.
	Drawn  bool
	Render func() ([]byte, error)
}

// Panel allows at most one request in flight at a time. Drawing does not
// wait on it; only re-submission is refused while pending.
type Panel struct {
	client Client
	logger *slog.Logger

	mu    sync.Mutex
	state State
	last  *Result
}

func NewPanel(client Client, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{client: client, logger: logger, state: StateIdle}
}

// Analyze validates req, renders the canvas and calls the client. Validation
// errors are returned before any external call. Every external failure is
// logged and reported as ErrAnalysisFailed.
func (p *Panel) Analyze(ctx context.Context, req Request) (Result, error) {
	if !req.Drawn {
		return Result{}, ErrNothingDrawn
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}

	p.mu.Lock()
	if p.state == StatePending {
		p.mu.Unlock()
		return Result{}, ErrAnalysisInFlight
	}
	p.state = StatePending
	p.mu.Unlock()

	res := Result{ID: typeid.NewAnalysisID(), Prompt: req.Prompt}
	start := time.Now()
	err := p.run(ctx, req, &res)
	res.Duration = time.Since(start)

	p.mu.Lock()
	p.state = StateResolved
	if err != nil {
		p.state = StateRejected
		res.Error = err.Error()
	}
	p.last = &res
	p.mu.Unlock()

	if err != nil {
		return res, err
	}
	p.logger.Info("analysis completed", "id", res.ID, "duration", res.Duration, "chars", len(res.Text))
	return res, nil
}

func (p *Panel) run(ctx context.Context, req Request, res *Result) error {
	image, err := req.Render()
	if err != nil {
		p.logger.Error("analysis render failed", "id", res.ID, "error", err)
		return ErrAnalysisFailed
	}

	text, err := p.client.Analyze(ctx, image, FormatPrompt(req.Prompt))
	if err != nil {
		p.logger.Error("analysis request failed", "id", res.ID, "error", err)
		return ErrAnalysisFailed
	}
	res.Text = text
	return nil
}

func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{State: p.state}
	if p.last != nil {
		last := *p.last
		st.Last = &last
	}
	return st
}

// IsValidationError reports whether err is an input error raised before any
// external call.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyPrompt) || errors.Is(err, ErrNothingDrawn)
}
