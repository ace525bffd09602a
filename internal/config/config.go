package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	TokenSecret string        `envconfig:"TOKEN_SECRET" default:"dev-secret-change-in-production"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"2h"`

	// HistoryLimit caps each editor's undo log; 0 keeps every entry.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"0"`

	SnapshotDir  string `envconfig:"SNAPSHOT_DIR" default:"./data/snapshots"`
	ExportWidth  int    `envconfig:"EXPORT_WIDTH" default:"1280"`
	ExportHeight int    `envconfig:"EXPORT_HEIGHT" default:"720"`

	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiBaseURL   string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	AnalysisTimeout time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"60s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins without their scheme, the form
// websocket origin patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, o)
	}
	return out
}
