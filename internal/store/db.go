// Package store persists benchmarked algorithm submissions for the
// leaderboard. The simulation core never depends on it; the API layer feeds
// it finished benchmark results.
package store

import "time"

// DB is the persistence interface for submissions.
type DB interface {
	Close() error
	Migrate() error
	SaveSubmission(sub *Submission) error
	GetSubmission(id string) (*Submission, error)
	ListSubmissions(query SubmissionsQuery) (*SubmissionsList, error)
	Leaderboard(limit int) ([]Submission, error)
}

// Submission is one benchmarked algorithm entry. Every field except Name is
// computed by the benchmark pipeline.
type Submission struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SourceCode   string    `json:"sourceCode" db:"source_code"`
	LinesOfCode  int       `json:"linesOfCode" db:"lines_of_code"`
	AvgScore     float64   `json:"avgScore" db:"avg_score"`
	MaxScore     int       `json:"maxScore" db:"max_score"`
	SurvivalRate float64   `json:"survivalRate" db:"survival_rate"`
	GamesPlayed  int       `json:"gamesPlayed" db:"games_played"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// SubmissionsQuery selects a page of submissions ordered by average score.
type SubmissionsQuery struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// SubmissionsList is a paginated listing response.
type SubmissionsList struct {
	Submissions []Submission `json:"submissions"`
	TotalCount  int          `json:"totalCount"`
	Page        int          `json:"page"`
	PerPage     int          `json:"perPage"`
	TotalPages  int          `json:"totalPages"`
}
