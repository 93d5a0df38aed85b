package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements DB using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL improves read concurrency for the leaderboard endpoints.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Idempotent.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_code TEXT NOT NULL,
			lines_of_code INTEGER NOT NULL DEFAULT 0,
			avg_score REAL NOT NULL DEFAULT 0,
			max_score INTEGER NOT NULL DEFAULT 0,
			survival_rate REAL NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_avg_score ON submissions(avg_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveSubmission inserts a submission, assigning an ID and timestamp when
// the caller left them empty.
func (s *SQLiteDB) SaveSubmission(sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO submissions (id, name, source_code, lines_of_code, avg_score,
			max_score, survival_rate, games_played, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.SourceCode, sub.LinesOfCode, sub.AvgScore,
		sub.MaxScore, sub.SurvivalRate, sub.GamesPlayed, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// GetSubmission fetches a single submission by ID.
func (s *SQLiteDB) GetSubmission(id string) (*Submission, error) {
	row := s.db.QueryRow(`
		SELECT id, name, source_code, lines_of_code, avg_score,
			max_score, survival_rate, games_played, created_at
		FROM submissions WHERE id = ?`, id)

	var sub Submission
	err := row.Scan(&sub.ID, &sub.Name, &sub.SourceCode, &sub.LinesOfCode,
		&sub.AvgScore, &sub.MaxScore, &sub.SurvivalRate, &sub.GamesPlayed, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// ListSubmissions returns a page of submissions ordered by average score,
// best first.
func (s *SQLiteDB) ListSubmissions(query SubmissionsQuery) (*SubmissionsList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 25
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	offset := (query.Page - 1) * query.PerPage
	rows, err := s.db.Query(`
		SELECT id, name, source_code, lines_of_code, avg_score,
			max_score, survival_rate, games_played, created_at
		FROM submissions
		ORDER BY avg_score DESC, created_at ASC
		LIMIT ? OFFSET ?`, query.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs, err := scanSubmissions(rows)
	if err != nil {
		return nil, err
	}

	totalPages := (total + query.PerPage - 1) / query.PerPage
	return &SubmissionsList{
		Submissions: subs,
		TotalCount:  total,
		Page:        query.Page,
		PerPage:     query.PerPage,
		TotalPages:  totalPages,
	}, nil
}

// Leaderboard returns the top submissions by average score.
func (s *SQLiteDB) Leaderboard(limit int) ([]Submission, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, name, source_code, lines_of_code, avg_score,
			max_score, survival_rate, games_played, created_at
		FROM submissions
		ORDER BY avg_score DESC, created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]Submission, error) {
	subs := []Submission{}
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.SourceCode, &sub.LinesOfCode,
			&sub.AvgScore, &sub.MaxScore, &sub.SurvivalRate, &sub.GamesPlayed, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
