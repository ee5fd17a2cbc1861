package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "arbor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreate(t *testing.T, db *DB, parent, content string, pos int) string {
	t.Helper()
	id, err := db.CreateNote(context.Background(), parent, content, pos)
	if err != nil {
		t.Fatalf("CreateNote(%q): %v", content, err)
	}
	return id
}

func childContents(t *testing.T, db *DB, parent string) []string {
	t.Helper()
	kids, err := db.GetChildren(context.Background(), parent)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	out := make([]string, len(kids))
	for i, k := range kids {
		out[i] = k.Content
	}
	return out
}

func assertContents(t *testing.T, db *DB, parent string, want ...string) {
	t.Helper()
	got := childContents(t, db, parent)
	if len(got) != len(want) {
		t.Fatalf("children of %s = %v, want %v", parent, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("children of %s = %v, want %v", parent, got, want)
		}
	}
}

// assertContiguous checks that every sibling list is numbered 0..k-1 and
// that every path is parent.path + "." + id.
func assertContiguous(t *testing.T, db *DB) {
	t.Helper()
	rows, err := db.conn.Query(`SELECT id, COALESCE(parent_id, ''), position, path FROM notes ORDER BY parent_id, position`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	type row struct {
		parent string
		pos    int
		path   string
	}
	all := map[string]row{}
	seen := map[string][]int{}
	for rows.Next() {
		var id string
		var r row
		if err := rows.Scan(&id, &r.parent, &r.pos, &r.path); err != nil {
			t.Fatal(err)
		}
		all[id] = r
		seen[r.parent] = append(seen[r.parent], r.pos)
	}
	for parent, positions := range seen {
		if parent == "" {
			continue
		}
		for i, p := range positions {
			if p != i {
				t.Fatalf("positions under %s = %v, want 0..%d", parent, positions, len(positions)-1)
			}
		}
	}
	for id, r := range all {
		if id == models.RootID {
			continue
		}
		if want := all[r.parent].path + "." + id; r.path != want {
			t.Fatalf("path of %s = %q, want %q", id, r.path, want)
		}
	}
}

func TestOpenCreatesRoot(t *testing.T) {
	db := testDB(t)
	root, err := db.GetNote(context.Background(), models.RootID)
	if err != nil {
		t.Fatalf("GetNote(root): %v", err)
	}
	if root.Content != models.RootContent || root.Path != models.RootID || !root.IsRoot() {
		t.Errorf("root = %+v", root)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateNoteShiftsSiblings(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, models.RootID, "a", 0)
	mustCreate(t, db, models.RootID, "c", 1)
	mustCreate(t, db, models.RootID, "b", 1)
	mustCreate(t, db, models.RootID, "z", -1)
	mustCreate(t, db, models.RootID, "first", 0)

	assertContents(t, db, models.RootID, "first", "a", "b", "c", "z")
	assertContiguous(t, db)
}

func TestCreateNoteUnknownParent(t *testing.T) {
	db := testDB(t)
	_, err := db.CreateNote(context.Background(), "nope", "x", 0)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNoteCascadesAndClosesGap(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	b := mustCreate(t, db, models.RootID, "b", -1)
	mustCreate(t, db, models.RootID, "c", -1)
	b1 := mustCreate(t, db, b, "b1", -1)
	b11 := mustCreate(t, db, b1, "b11", -1)

	if err := db.DeleteNote(ctx, b); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	assertContents(t, db, models.RootID, "a", "c")
	for _, id := range []string{b, b1, b11} {
		if _, err := db.GetNote(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("GetNote(%s) err = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := db.GetNote(ctx, a); err != nil {
		t.Errorf("sibling removed: %v", err)
	}
	assertContiguous(t, db)
}

func TestDeleteRootRejected(t *testing.T) {
	db := testDB(t)
	err := db.DeleteNote(context.Background(), models.RootID)
	if !errors.Is(err, apperr.ErrRootImmutable) {
		t.Fatalf("err = %v, want ErrRootImmutable", err)
	}
}

func TestMoveNoteWithinParent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	mustCreate(t, db, models.RootID, "b", -1)
	c := mustCreate(t, db, models.RootID, "c", -1)
	mustCreate(t, db, models.RootID, "d", -1)

	// Down: a ends at final index 2.
	if err := db.MoveNote(ctx, a, models.RootID, 2); err != nil {
		t.Fatalf("MoveNote down: %v", err)
	}
	assertContents(t, db, models.RootID, "b", "c", "a", "d")

	// Up: c to the front.
	if err := db.MoveNote(ctx, c, models.RootID, 0); err != nil {
		t.Fatalf("MoveNote up: %v", err)
	}
	assertContents(t, db, models.RootID, "c", "b", "a", "d")
	assertContiguous(t, db)
}

func TestMoveNoteAcrossParentsRewritesPaths(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	b := mustCreate(t, db, models.RootID, "b", -1)
	a1 := mustCreate(t, db, a, "a1", -1)
	a11 := mustCreate(t, db, a1, "a11", -1)
	mustCreate(t, db, b, "b1", -1)

	if err := db.MoveNote(ctx, a1, b, 0); err != nil {
		t.Fatalf("MoveNote: %v", err)
	}
	assertContents(t, db, a)
	assertContents(t, db, b, "a1", "b1")

	n, err := db.GetNote(ctx, a11)
	if err != nil {
		t.Fatal(err)
	}
	want := models.RootID + "." + b + "." + a1 + "." + a11
	if n.Path != want || n.Depth != 3 {
		t.Errorf("a11 path = %q depth %d, want %q depth 3", n.Path, n.Depth, want)
	}
	assertContiguous(t, db)
}

func TestMoveNoteRejectsCycles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	a1 := mustCreate(t, db, a, "a1", -1)

	if err := db.MoveNote(ctx, a, a1, 0); !errors.Is(err, apperr.ErrRejected) {
		t.Errorf("move under descendant err = %v, want ErrRejected", err)
	}
	if err := db.MoveNote(ctx, a, a, 0); !errors.Is(err, apperr.ErrRejected) {
		t.Errorf("move under self err = %v, want ErrRejected", err)
	}
	if err := db.MoveNote(ctx, models.RootID, a, 0); !errors.Is(err, apperr.ErrRootImmutable) {
		t.Errorf("move root err = %v, want ErrRootImmutable", err)
	}
	assertContents(t, db, models.RootID, "a")
	assertContents(t, db, a, "a1")
}

func TestMoveNotesIsAtomic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	b := mustCreate(t, db, models.RootID, "b", -1)
	c := mustCreate(t, db, models.RootID, "c", -1)

	err := db.MoveNotes(ctx, []models.Move{
		{ID: b, ParentID: a, Position: 0},
		{ID: c, ParentID: "missing", Position: 0},
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	assertContents(t, db, models.RootID, "a", "b", "c")
	assertContents(t, db, a)

	if err := db.MoveNotes(ctx, []models.Move{
		{ID: b, ParentID: a, Position: 0},
		{ID: c, ParentID: a, Position: 1},
	}); err != nil {
		t.Fatalf("MoveNotes: %v", err)
	}
	assertContents(t, db, a, "b", "c")
	assertContiguous(t, db)
}

func TestUpdateNoteForce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return clock }
	id := mustCreate(t, db, models.RootID, "same", -1)

	clock = clock.Add(time.Hour)
	if err := db.UpdateNote(ctx, id, "same", false); err != nil {
		t.Fatal(err)
	}
	n, _ := db.GetNote(ctx, id)
	if !n.UpdatedAt.Equal(clock.Add(-time.Hour)) {
		t.Errorf("unforced unchanged update touched updated_at: %v", n.UpdatedAt)
	}

	if err := db.UpdateNote(ctx, id, "same", true); err != nil {
		t.Fatal(err)
	}
	n, _ = db.GetNote(ctx, id)
	if !n.UpdatedAt.Equal(clock) {
		t.Errorf("forced update updated_at = %v, want %v", n.UpdatedAt, clock)
	}

	if err := db.UpdateNote(ctx, "missing", "x", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestCycleTaskStatus(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustCreate(t, db, models.RootID, "task", -1)

	want := []models.TaskStatus{models.TaskActive, models.TaskComplete, models.TaskCancelled, models.TaskNone}
	for _, w := range want {
		got, err := db.CycleTaskStatus(ctx, id)
		if err != nil {
			t.Fatalf("CycleTaskStatus: %v", err)
		}
		if got != w {
			t.Fatalf("status = %q, want %q", got, w)
		}
		n, _ := db.GetNote(ctx, id)
		if n.TaskStatus != w {
			t.Fatalf("stored status = %q, want %q", n.TaskStatus, w)
		}
		if (n.CompletedAt != nil) != (w == models.TaskComplete) {
			t.Errorf("status %q completed_at = %v", w, n.CompletedAt)
		}
	}
}

func TestSetPriorityAndDates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustCreate(t, db, models.RootID, "plain", -1)

	p := 3
	if err := db.SetPriority(ctx, id, &p); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	bad := 7
	if err := db.SetPriority(ctx, id, &bad); !errors.Is(err, apperr.ErrRejected) {
		t.Errorf("SetPriority(7) err = %v, want ErrRejected", err)
	}
	due := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	if err := db.SetTaskDate(ctx, id, models.DateDue, &due); err != nil {
		t.Fatalf("SetTaskDate: %v", err)
	}

	n, _ := db.GetNote(ctx, id)
	if n.TaskStatus != models.TaskActive {
		t.Errorf("status = %q, want active", n.TaskStatus)
	}
	if n.Priority == nil || *n.Priority != 3 {
		t.Errorf("priority = %v, want 3", n.Priority)
	}
	if n.DueAt == nil || !n.DueAt.Equal(due) {
		t.Errorf("due = %v, want %v", n.DueAt, due)
	}

	if err := db.SetTaskDate(ctx, id, models.DateDue, nil); err != nil {
		t.Fatal(err)
	}
	n, _ = db.GetNote(ctx, id)
	if n.DueAt != nil {
		t.Errorf("due not cleared: %v", n.DueAt)
	}
}

func TestNextChildPositionAndCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	a1 := mustCreate(t, db, a, "a1", -1)
	mustCreate(t, db, a, "a2", -1)
	mustCreate(t, db, a1, "a11", -1)

	if got, _ := db.NextChildPosition(ctx, a); got != 2 {
		t.Errorf("NextChildPosition(a) = %d, want 2", got)
	}
	if got, _ := db.NextChildPosition(ctx, "empty"); got != 0 {
		t.Errorf("NextChildPosition(empty) = %d, want 0", got)
	}
	if got, _ := db.CountDescendants(ctx, a); got != 3 {
		t.Errorf("CountDescendants(a) = %d, want 3", got)
	}
}

func TestSaveExpansionState(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustCreate(t, db, models.RootID, "a", -1)
	if err := db.SaveExpansionState(ctx, id, true); err != nil {
		t.Fatal(err)
	}
	n, _ := db.GetNote(ctx, id)
	if !n.Expanded {
		t.Error("expanded not saved")
	}
	if err := db.SaveExpansionState(ctx, "missing", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustCreate(t, db, models.RootID, "buy milk", -1)
	mustCreate(t, db, models.RootID, "walk the dog", -1)

	results, err := db.Search(ctx, "milk", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Content != "buy milk" {
		t.Errorf("results = %+v", results)
	}
	if results, _ := db.Search(ctx, "", 10); len(results) != 0 {
		t.Errorf("empty query results = %+v", results)
	}
}

func TestRepairNormalizesPositionsAndPaths(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustCreate(t, db, models.RootID, "a", -1)
	mustCreate(t, db, models.RootID, "b", -1)
	a1 := mustCreate(t, db, a, "a1", -1)

	// Corrupt positions and a path behind the store's back.
	if _, err := db.conn.Exec(`UPDATE notes SET position = position + 5 WHERE parent_id = ?`, models.RootID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec(`UPDATE notes SET path = 'bogus' WHERE id = ?`, a1); err != nil {
		t.Fatal(err)
	}

	fixed, err := db.Repair(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if fixed != 3 {
		t.Errorf("fixed = %d, want 3", fixed)
	}
	assertContents(t, db, models.RootID, "a", "b")
	assertContiguous(t, db)
}
