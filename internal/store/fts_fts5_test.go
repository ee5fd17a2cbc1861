//go:build sqlite_fts5

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/arbor/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchFollowsUpdatesAndDeletes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustCreate(t, db, models.RootID, "quarterly planning notes", -1)
	child := mustCreate(t, db, id, "planning for the offsite", -1)

	results, err := db.Search(ctx, "planning", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet missing highlight: %q", results[0].Snippet)
	}

	if err := db.UpdateNote(ctx, child, "offsite agenda", false); err != nil {
		t.Fatal(err)
	}
	results, _ = db.Search(ctx, "planning", 10)
	if len(results) != 1 {
		t.Errorf("after update results = %d, want 1", len(results))
	}

	if err := db.DeleteNote(ctx, id); err != nil {
		t.Fatal(err)
	}
	results, _ = db.Search(ctx, "offsite", 10)
	if len(results) != 0 {
		t.Errorf("after delete results = %d, want 0", len(results))
	}
}
