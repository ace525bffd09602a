package stream

import (
	"encoding/json"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/session"
)

// Message is the envelope for every frame on the socket. Replies carry the
// Seq of the client message they answer.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	// Client to server
	TypeEvent   = "event"
	TypeCommand = "command"
	TypeAnalyze = "analyze"

	// Server to client
	TypeWelcome        = "welcome"
	TypeFrame          = "frame"
	TypeAnalysisResult = "analysis.result"
	TypeAnalysisError  = "analysis.error"
	TypeError          = "error"
)

// AnalyzePayload is the payload for analyze messages.
type AnalyzePayload struct {
	Prompt string `json:"prompt"`
}

// WelcomePayload is sent once when a connection is accepted.
type WelcomePayload struct {
	ClientID string        `json:"clientId"`
	Frame    session.Frame `json:"frame"`
}

// AnalysisErrorPayload carries the user-facing message of a failed
// analysis.
type AnalysisErrorPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// AnalysisResultPayload wraps a finished analysis.
type AnalysisResultPayload struct {
	Result analysis.Result `json:"result"`
}
