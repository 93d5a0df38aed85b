package store

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSaveAndGetSubmission(t *testing.T) {
	db := newTestDB(t)

	sub := &Submission{
		Name:         "greedy-v1",
		SourceCode:   "function algorithm(ctx) { return null; }",
		LinesOfCode:  1,
		AvgScore:     42.5,
		MaxScore:     120,
		SurvivalRate: 60,
		GamesPlayed:  10,
	}
	if err := db.SaveSubmission(sub); err != nil {
		t.Fatal(err)
	}
	if sub.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if sub.CreatedAt.IsZero() {
		t.Fatal("expected an assigned timestamp")
	}

	got, err := db.GetSubmission(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != sub.Name || got.SourceCode != sub.SourceCode ||
		got.AvgScore != sub.AvgScore || got.MaxScore != sub.MaxScore ||
		got.SurvivalRate != sub.SurvivalRate || got.GamesPlayed != sub.GamesPlayed {
		t.Errorf("round trip mismatch:\nsaved %+v\ngot   %+v", sub, got)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetSubmission("no-such-id"); err == nil {
		t.Fatal("expected an error for a missing submission")
	}
}

func TestListSubmissionsOrderingAndPaging(t *testing.T) {
	db := newTestDB(t)
	scores := []float64{10, 50, 30, 40, 20}
	for i, score := range scores {
		sub := &Submission{
			Name:       "algo",
			SourceCode: "src",
			AvgScore:   score,
		}
		if err := db.SaveSubmission(sub); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	list, err := db.ListSubmissions(SubmissionsQuery{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if list.TotalCount != 5 || list.TotalPages != 3 {
		t.Errorf("expected 5 total over 3 pages, got %+v", list)
	}
	if len(list.Submissions) != 2 {
		t.Fatalf("expected 2 on first page, got %d", len(list.Submissions))
	}
	if list.Submissions[0].AvgScore != 50 || list.Submissions[1].AvgScore != 40 {
		t.Errorf("wrong ordering: %v, %v", list.Submissions[0].AvgScore, list.Submissions[1].AvgScore)
	}

	last, err := db.ListSubmissions(SubmissionsQuery{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Submissions) != 1 || last.Submissions[0].AvgScore != 10 {
		t.Errorf("wrong last page: %+v", last.Submissions)
	}
}

func TestListSubmissionsDefaults(t *testing.T) {
	db := newTestDB(t)
	list, err := db.ListSubmissions(SubmissionsQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Page != 1 || list.PerPage != 25 {
		t.Errorf("expected default paging, got %+v", list)
	}
}

func TestLeaderboard(t *testing.T) {
	db := newTestDB(t)
	for _, score := range []float64{5, 25, 15} {
		if err := db.SaveSubmission(&Submission{Name: "a", SourceCode: "s", AvgScore: score}); err != nil {
			t.Fatal(err)
		}
	}

	top, err := db.Leaderboard(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].AvgScore != 25 || top[1].AvgScore != 15 {
		t.Errorf("wrong leaderboard order: %+v", top)
	}
}
