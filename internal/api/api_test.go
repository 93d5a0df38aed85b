package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/atlascodesai/snake-ai-arena/internal/config"
	"github.com/atlascodesai/snake-ai-arena/internal/sandbox"
	"github.com/atlascodesai/snake-ai-arena/internal/store"
)

// newTestServer wires a real SQLite store and a short benchmark config so
// endpoint tests finish quickly.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Benchmark.NumGames = 3
	cfg.Benchmark.MaxFrames = 40
	cfg.Benchmark.Workers = 2

	ts := httptest.NewServer(NewServer(db, cfg).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("unexpected health payload: %v", body)
	}
}

func TestCompileEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/compile", CompileRequest{SourceCode: sandbox.ExampleStraight})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ok CompileResponse
	decodeBody(t, resp, &ok)
	if !ok.OK {
		t.Error("expected ok=true")
	}

	resp = postJSON(t, ts.URL+"/api/v1/compile", CompileRequest{SourceCode: "function nope() {}"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var engineErr EngineError
	decodeBody(t, resp, &engineErr)
	if engineErr.Type != ErrTypeCompilation {
		t.Errorf("expected %s, got %s", ErrTypeCompilation, engineErr.Type)
	}
	if engineErr.RequestID == "" {
		t.Error("expected a request ID in the error envelope")
	}
}

func TestBenchmarkEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/benchmark", BenchmarkRequest{
		SourceCode: sandbox.ExampleStraight,
		NumGames:   2,
		StartSeed:  1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body BenchmarkResponse
	decodeBody(t, resp, &body)
	if body.Result == nil {
		t.Fatal("expected a result")
	}
	if body.Result.GamesPlayed != 2 {
		t.Errorf("expected 2 games, got %d", body.Result.GamesPlayed)
	}
	if len(body.Result.Scores) != 2 {
		t.Errorf("expected 2 scores, got %d", len(body.Result.Scores))
	}
}

func TestBenchmarkEndpointCompileError(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/benchmark", BenchmarkRequest{SourceCode: "syntax error ((("})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var engineErr EngineError
	decodeBody(t, resp, &engineErr)
	if engineErr.Type != ErrTypeCompilation {
		t.Errorf("expected %s, got %s", ErrTypeCompilation, engineErr.Type)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/submissions", SubmissionRequest{
		Name:       "straight-line",
		SourceCode: sandbox.ExampleStraight,
		NumGames:   2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created SubmissionResponse
	decodeBody(t, resp, &created)
	if created.Submission == nil || created.Submission.ID == "" {
		t.Fatal("expected a stored submission with an ID")
	}
	if created.Submission.GamesPlayed != 2 {
		t.Errorf("expected 2 games played, got %d", created.Submission.GamesPlayed)
	}
	if created.Submission.LinesOfCode == 0 {
		t.Error("expected a nonzero line count")
	}
	if created.Result == nil {
		t.Error("expected the full benchmark result alongside the entry")
	}

	resp, err := http.Get(ts.URL + "/api/v1/submissions/" + created.Submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var fetched store.Submission
	decodeBody(t, resp, &fetched)
	if fetched.Name != "straight-line" {
		t.Errorf("unexpected name %q", fetched.Name)
	}

	resp, err = http.Get(ts.URL + "/api/v1/submissions?page=1&perPage=10")
	if err != nil {
		t.Fatal(err)
	}
	var list store.SubmissionsList
	decodeBody(t, resp, &list)
	if list.TotalCount != 1 || len(list.Submissions) != 1 {
		t.Errorf("unexpected listing: %+v", list)
	}

	resp, err = http.Get(ts.URL + "/api/v1/leaderboard?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	var board struct {
		Leaderboard []store.Submission `json:"leaderboard"`
	}
	decodeBody(t, resp, &board)
	if len(board.Leaderboard) != 1 {
		t.Errorf("expected 1 leaderboard entry, got %d", len(board.Leaderboard))
	}
}

func TestSubmissionValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"sourceCode": "function algorithm(ctx) { return null; }"}`},
		{"empty name", `{"name": "", "sourceCode": "function algorithm(ctx) { return null; }"}`},
		{"missing source", `{"name": "algo"}`},
		{"unknown field", `{"name": "algo", "sourceCode": "x", "avgScore": 9999}`},
		{"numGames over limit", fmt.Sprintf(`{"name": "algo", "sourceCode": "x", "numGames": %d}`, 101)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/submissions", "application/json",
				bytes.NewReader([]byte(tt.payload)))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var engineErr EngineError
			decodeBody(t, resp, &engineErr)
			if engineErr.Type != ErrTypeValidation {
				t.Errorf("expected %s, got %s", ErrTypeValidation, engineErr.Type)
			}
		})
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/submissions/nope")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var engineErr EngineError
	decodeBody(t, resp, &engineErr)
	if engineErr.Type != ErrTypeNotFound {
		t.Errorf("expected %s, got %s", ErrTypeNotFound, engineErr.Type)
	}
}
