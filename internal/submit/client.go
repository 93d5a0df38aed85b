// Package submit posts benchmarked algorithms to a leaderboard server and
// computes the source-derived fields of a submission record.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request is the payload for creating a leaderboard entry. The server runs
// the benchmark itself; only the name and source travel.
type Request struct {
	Name       string `json:"name"`
	SourceCode string `json:"sourceCode"`
	NumGames   int    `json:"numGames,omitempty"`
	StartSeed  int64  `json:"startSeed,omitempty"`
}

// Entry is the stored submission as the server reports it back.
type Entry struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LinesOfCode  int     `json:"linesOfCode"`
	AvgScore     float64 `json:"avgScore"`
	MaxScore     int     `json:"maxScore"`
	SurvivalRate float64 `json:"survivalRate"`
	GamesPlayed  int     `json:"gamesPlayed"`
}

// Client talks to the leaderboard API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a leaderboard client. token may be empty for servers
// that accept anonymous submissions.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// CreateSubmission posts the request and returns the stored entry.
func (c *Client) CreateSubmission(ctx context.Context, req Request) (*Entry, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/submissions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting submission: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("server rejected submission: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var wrapper struct {
		Submission *Entry `json:"submission"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if wrapper.Submission == nil {
		return nil, fmt.Errorf("response missing submission")
	}
	return wrapper.Submission, nil
}

// LinesOfCode counts non-blank, non-comment lines of algorithm source. Block
// comments are tracked across lines; code sharing a line with a comment
// opener still counts.
func LinesOfCode(source string) int {
	count := 0
	inBlock := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if inBlock {
			if idx := strings.Index(trimmed, "*/"); idx >= 0 {
				inBlock = false
				rest := strings.TrimSpace(trimmed[idx+2:])
				if rest != "" && !strings.HasPrefix(rest, "//") {
					count++
				}
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			if !strings.Contains(trimmed, "*/") {
				inBlock = true
			}
			continue
		}
		count++
		if idx := strings.Index(trimmed, "/*"); idx >= 0 && !strings.Contains(trimmed[idx:], "*/") {
			inBlock = true
		}
	}
	return count
}
