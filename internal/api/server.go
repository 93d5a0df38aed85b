// Package api exposes the benchmark pipeline and the leaderboard over HTTP.
// All simulation work happens in-process; the API layer only shapes requests
// and responses.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atlascodesai/snake-ai-arena/internal/bench"
	"github.com/atlascodesai/snake-ai-arena/internal/config"
	"github.com/atlascodesai/snake-ai-arena/internal/sandbox"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
	"github.com/atlascodesai/snake-ai-arena/internal/store"
	"github.com/atlascodesai/snake-ai-arena/internal/submit"
)

// Server handles HTTP requests.
type Server struct {
	db        store.DB
	cfg       config.Config
	runner    *bench.Runner
	logger    *log.Logger
	startTime time.Time
}

// NewServer creates an API server. db may be nil, which disables the
// submission and leaderboard endpoints.
func NewServer(db store.DB, cfg config.Config) *Server {
	return &Server{
		db:        db,
		cfg:       cfg,
		runner:    bench.NewRunner(cfg.Benchmark.MaxFrames),
		logger:    log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Post("/benchmark", s.handleBenchmark)
		r.Post("/submissions", s.handleCreateSubmission)
		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/submissions/{id}", s.handleGetSubmission)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/live", s.handleLive)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "invalid request body", err)
		return
	}
	if _, err := sandbox.Compile(req.SourceCode); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, ErrTypeCompilation, "algorithm does not compile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, CompileResponse{OK: true})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "invalid request body", err)
		return
	}
	result, status, err := s.benchmark(r, req.SourceCode, req.NumGames, req.StartSeed)
	if err != nil {
		errType := ErrTypeInternal
		var compileErr *sandbox.CompileError
		if errors.As(err, &compileErr) {
			errType = ErrTypeCompilation
		}
		s.writeError(w, r, status, errType, "benchmark failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, BenchmarkResponse{Result: result})
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "persistence is disabled", nil)
		return
	}

	var req SubmissionRequest
	if err := decodeAndValidate(r.Body, compiledSubmissionSchema, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "invalid submission payload", err)
		return
	}

	result, status, err := s.benchmark(r, req.SourceCode, req.NumGames, req.StartSeed)
	if err != nil {
		errType := ErrTypeInternal
		var compileErr *sandbox.CompileError
		if errors.As(err, &compileErr) {
			errType = ErrTypeCompilation
		}
		s.writeError(w, r, status, errType, "benchmark failed", err)
		return
	}

	sub := &store.Submission{
		Name:         req.Name,
		SourceCode:   req.SourceCode,
		LinesOfCode:  submit.LinesOfCode(req.SourceCode),
		AvgScore:     result.AvgScore,
		MaxScore:     result.MaxScore,
		SurvivalRate: result.SurvivalRate,
		GamesPlayed:  result.GamesPlayed,
	}
	if err := s.db.SaveSubmission(sub); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, "failed to save submission", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, SubmissionResponse{Submission: sub, Result: result})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "persistence is disabled", nil)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))

	list, err := s.db.ListSubmissions(store.SubmissionsQuery{Page: page, PerPage: perPage})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, "failed to list submissions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "persistence is disabled", nil)
		return
	}
	sub, err := s.db.GetSubmission(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNotFound, "submission not found", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "persistence is disabled", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := s.db.Leaderboard(limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, "failed to query leaderboard", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": subs})
}

// benchmark compiles the source and runs the configured batch, applying
// server defaults for unset parameters.
func (s *Server) benchmark(r *http.Request, source string, numGames int, startSeed int64) (*bench.Result, int, error) {
	if numGames <= 0 {
		numGames = s.cfg.Benchmark.NumGames
	}
	if startSeed <= 0 {
		startSeed = s.cfg.Benchmark.StartSeed
	}

	factory := bench.DecisionFactory(func() (sim.DecisionFunc, error) {
		return sandbox.Compile(source)
	})
	// Compile once up front so a compile error is reported as such instead
	// of surfacing from a worker.
	if _, err := factory(); err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}

	result, err := s.runner.RunParallel(r.Context(), factory, numGames, startSeed, s.cfg.Benchmark.Workers, nil)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return result, http.StatusOK, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string, cause error) {
	ctx := map[string]interface{}{"path": r.URL.Path, "method": r.Method}
	if cause != nil {
		ctx["cause"] = cause.Error()
	}
	s.logger.Printf("%s %s -> %d %s: %v", r.Method, r.URL.Path, status, errType, cause)
	s.writeJSON(w, status, EngineError{
		Type:      errType,
		Message:   message,
		Context:   ctx,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
