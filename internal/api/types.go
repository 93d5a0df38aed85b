package api

import (
	"github.com/atlascodesai/snake-ai-arena/internal/bench"
	"github.com/atlascodesai/snake-ai-arena/internal/store"
)

// EngineError is the structured error envelope every failing endpoint
// returns.
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e EngineError) Error() string {
	return e.Message
}

// Error types by category.
const (
	ErrTypeValidation  = "validation_error"
	ErrTypeCompilation = "compilation_error"
	ErrTypeNotFound    = "not_found"
	ErrTypeInternal    = "internal_error"
)

// CompileRequest asks whether source text compiles into a valid algorithm.
type CompileRequest struct {
	SourceCode string `json:"sourceCode"`
}

// CompileResponse reports a compile check outcome.
type CompileResponse struct {
	OK bool `json:"ok"`
}

// BenchmarkRequest runs a benchmark batch over submitted source.
type BenchmarkRequest struct {
	SourceCode string `json:"sourceCode"`
	NumGames   int    `json:"numGames,omitempty"`
	StartSeed  int64  `json:"startSeed,omitempty"`
}

// BenchmarkResponse wraps the aggregate result.
type BenchmarkResponse struct {
	Result *bench.Result `json:"result"`
}

// SubmissionRequest creates a leaderboard entry. The server benchmarks the
// source itself; clients cannot supply their own scores.
type SubmissionRequest struct {
	Name       string `json:"name"`
	SourceCode string `json:"sourceCode"`
	NumGames   int    `json:"numGames,omitempty"`
	StartSeed  int64  `json:"startSeed,omitempty"`
}

// SubmissionResponse returns the stored entry plus the full benchmark detail.
type SubmissionResponse struct {
	Submission *store.Submission `json:"submission"`
	Result     *bench.Result     `json:"result"`
}

// LiveRequest is the first message a websocket playback client sends.
type LiveRequest struct {
	SourceCode string `json:"sourceCode"`
	Seed       int64  `json:"seed"`
	MaxFrames  int    `json:"maxFrames,omitempty"`
	TickMs     int    `json:"tickMs,omitempty"`
}
