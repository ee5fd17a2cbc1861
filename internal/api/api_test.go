package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/arbor/internal/instant"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/store"
	"github.com/starford/arbor/internal/testutil"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type noteJSON struct {
	ID         string   `json:"id"`
	ParentID   string   `json:"parent_id"`
	Position   int      `json:"position"`
	Content    string   `json:"content"`
	TaskStatus string   `json:"task_status"`
	Priority   *int     `json:"priority"`
	DueAt      *string  `json:"due_at"`
	Checksum   string   `json:"checksum"`
	Warnings   []string `json:"warnings"`
}

func newTestService(t *testing.T, backend noteservice.Backend) *noteservice.Service {
	t.Helper()
	svc, err := noteservice.New(context.Background(), backend, noteservice.Config{
		Resolver: instant.New(
			instant.WithClock(func() time.Time { return testNow }),
			instant.WithLocation(time.UTC),
		),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("noteservice.New: %v", err)
	}
	return svc
}

// testEnv sets up a temp SQLite store, service, exports dir and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	_, exports := testutil.TestDir(t)
	svc := newTestService(t, testutil.TestStore(t))
	return NewRouter(svc, authToken != "", authToken, nil, exports)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createNote(t *testing.T, router http.Handler, parent, content string) noteJSON {
	t.Helper()
	w := do(t, router, http.MethodPost, "/notes", map[string]any{"parent_id": parent, "content": content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decodeBody[noteJSON](t, w)
}

func applied(t *testing.T, w *httptest.ResponseRecorder) bool {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	return decodeBody[AppliedResponse](t, w).Applied
}

func TestCreateAndGetNote(t *testing.T) {
	router := testEnv(t, "")

	created := createNote(t, router, "", "Groceries")
	if created.ParentID != "root" {
		t.Errorf("parent = %q, want root", created.ParentID)
	}

	w := do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	note := decodeBody[noteJSON](t, w)
	if note.Content != "Groceries" {
		t.Errorf("content = %q", note.Content)
	}
	if got := w.Header().Get("ETag"); got != `"`+note.Checksum+`"` {
		t.Errorf("ETag = %q, checksum = %q", got, note.Checksum)
	}
}

func TestCreateAtPositionAndSibling(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "root", "a")

	w := do(t, router, http.MethodPost, "/notes", map[string]any{"parent_id": "root", "content": "first", "position": 0})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	if first := decodeBody[noteJSON](t, w); first.Position != 0 {
		t.Errorf("position = %d, want 0", first.Position)
	}

	w = do(t, router, http.MethodPost, "/notes/"+a.ID+"/siblings", map[string]string{"content": "after a"})
	if w.Code != http.StatusCreated {
		t.Fatalf("sibling = %d, body = %s", w.Code, w.Body.String())
	}
	sib := decodeBody[noteJSON](t, w)
	if sib.Position != 2 {
		t.Errorf("sibling position = %d, want 2", sib.Position)
	}

	w = do(t, router, http.MethodGet, "/notes/root/children", nil)
	kids := decodeBody[struct {
		Children []noteJSON `json:"children"`
	}](t, w).Children
	if len(kids) != 3 || kids[0].Content != "first" || kids[1].Content != "a" || kids[2].Content != "after a" {
		t.Errorf("children = %+v", kids)
	}
}

func TestCreateValidation(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/notes", map[string]any{"content": "x", "position": -2})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative position = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/notes", map[string]any{"parent_id": "missing", "content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing parent = %d, want 404", w.Code)
	}
}

func TestCreateTaskParsesContent(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/notes", map[string]any{"content": "pay rent due tomorrow p1", "task": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task = %d, body = %s", w.Code, w.Body.String())
	}
	n := decodeBody[noteJSON](t, w)
	if n.Content != "pay rent" {
		t.Errorf("content = %q", n.Content)
	}
	if n.TaskStatus != "active" {
		t.Errorf("status = %q", n.TaskStatus)
	}
	if n.Priority == nil || *n.Priority != 1 {
		t.Errorf("priority = %v, want 1", n.Priority)
	}
	if n.DueAt == nil {
		t.Error("due not set")
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router := testEnv(t, "")
	created := createNote(t, router, "", "v1")

	put := func(ifMatch string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(map[string]string{"content": "v2"})
		req := httptest.NewRequest(http.MethodPut, "/notes/"+created.ID, bytes.NewReader(raw))
		if ifMatch != "" {
			req.Header.Set("If-Match", `"`+ifMatch+`"`)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := put(created.Checksum); w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}
	if w := put(created.Checksum); w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
	if w := put(""); w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestUpdateNote_Errors(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPut, "/notes/missing", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	n := createNote(t, router, "", "x")
	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("no content = %d, want 400", w.Code)
	}
}

func TestUpdateOfEditedNoteConflicts(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "draft")
	if w := do(t, router, http.MethodPost, "/edit/start", map[string]string{"id": n.ID}); w.Code != http.StatusOK {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	w := do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]string{"content": "other"})
	if w.Code != http.StatusConflict {
		t.Errorf("update while editing = %d, want 409", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "bye")

	if w := do(t, router, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if applied(t, do(t, router, http.MethodDelete, "/notes/root", nil)) {
		t.Error("deleting the root must not apply")
	}
}

func TestTaskEndpoints(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "report")

	w := do(t, router, http.MethodPost, "/notes/"+n.ID+"/task/cycle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cycle = %d", w.Code)
	}
	if st := decodeBody[map[string]string](t, w)["task_status"]; st != "active" {
		t.Errorf("status = %q, want active", st)
	}

	if w := do(t, router, http.MethodPut, "/notes/"+n.ID+"/task", map[string]any{"priority": 9}); w.Code != http.StatusBadRequest {
		t.Errorf("priority 9 = %d, want 400", w.Code)
	}
	if !applied(t, do(t, router, http.MethodPut, "/notes/"+n.ID+"/task", map[string]any{"priority": 2, "due": "in 2 days"})) {
		t.Fatal("set task not applied")
	}
	if applied(t, do(t, router, http.MethodPut, "/notes/"+n.ID+"/task", map[string]any{"due": "zzzz"})) {
		t.Error("unresolvable date must not apply")
	}

	got := decodeBody[noteJSON](t, do(t, router, http.MethodGet, "/notes/"+n.ID, nil))
	if got.Priority == nil || *got.Priority != 2 {
		t.Errorf("priority = %v, want 2", got.Priority)
	}
	if got.DueAt == nil {
		t.Error("due not set")
	}
}

func TestIndentOutdentMove(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "", "a")
	b := createNote(t, router, "", "b")

	if applied(t, do(t, router, http.MethodPost, "/structure/indent", map[string]any{"ids": []string{a.ID}})) {
		t.Error("indenting a first child must not apply")
	}
	if !applied(t, do(t, router, http.MethodPost, "/structure/indent", map[string]any{"ids": []string{b.ID}})) {
		t.Fatal("indent not applied")
	}
	if got := decodeBody[noteJSON](t, do(t, router, http.MethodGet, "/notes/"+b.ID, nil)); got.ParentID != a.ID {
		t.Errorf("parent after indent = %q, want %q", got.ParentID, a.ID)
	}
	if !applied(t, do(t, router, http.MethodPost, "/structure/outdent", map[string]any{"ids": []string{b.ID}})) {
		t.Fatal("outdent not applied")
	}
	if applied(t, do(t, router, http.MethodPost, "/structure/move", map[string]any{"id": a.ID, "parent_id": a.ID, "position": 0})) {
		t.Error("moving a note under itself must not apply")
	}
	if !applied(t, do(t, router, http.MethodPost, "/structure/move", map[string]any{"id": a.ID, "parent_id": b.ID, "position": 0})) {
		t.Error("move not applied")
	}
	if w := do(t, router, http.MethodPost, "/structure/indent", map[string]any{"ids": []string{}}); w.Code != http.StatusBadRequest {
		t.Errorf("empty ids = %d, want 400", w.Code)
	}
}

func TestDrop(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "", "a")
	b := createNote(t, router, "", "b")

	if w := do(t, router, http.MethodPost, "/structure/drop", map[string]any{"ids": []string{b.ID}, "target": a.ID, "where": "sideways"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad where = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/structure/drop", map[string]any{"ids": []string{b.ID}, "where": "on"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing target = %d, want 400", w.Code)
	}
	if !applied(t, do(t, router, http.MethodPost, "/structure/drop", map[string]any{"ids": []string{b.ID}, "target": a.ID, "where": "on"})) {
		t.Fatal("drop on not applied")
	}
	if got := decodeBody[noteJSON](t, do(t, router, http.MethodGet, "/notes/"+b.ID, nil)); got.ParentID != a.ID {
		t.Errorf("parent = %q, want %q", got.ParentID, a.ID)
	}
	if applied(t, do(t, router, http.MethodPost, "/structure/drop", map[string]any{"ids": []string{a.ID}, "target": b.ID, "where": "on"})) {
		t.Error("drop into own subtree must not apply")
	}
}

func TestTreeFocusAndDepth(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "", "a")
	createNote(t, router, a.ID, "a1")

	v := decodeBody[View](t, do(t, router, http.MethodGet, "/tree", nil))
	if v.Focus != "root" || len(v.Rows) != 3 {
		t.Fatalf("view focus = %q rows = %d, want root/3", v.Focus, len(v.Rows))
	}

	if !applied(t, do(t, router, http.MethodPost, "/focus", map[string]string{"id": a.ID})) {
		t.Fatal("focus not applied")
	}
	v = decodeBody[View](t, do(t, router, http.MethodGet, "/tree", nil))
	if v.Focus != a.ID || len(v.Breadcrumbs) != 2 {
		t.Errorf("focus = %q crumbs = %d", v.Focus, len(v.Breadcrumbs))
	}
	if !applied(t, do(t, router, http.MethodPost, "/focus/up", nil)) {
		t.Error("focus up not applied")
	}

	if w := do(t, router, http.MethodPut, "/depth", map[string]int{"max_depth": 0}); w.Code != http.StatusBadRequest {
		t.Errorf("depth 0 = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodPut, "/depth", map[string]int{"max_depth": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("depth = %d", w.Code)
	}
	if v := decodeBody[View](t, w); v.MaxDepth != 3 {
		t.Errorf("max depth = %d, want 3", v.MaxDepth)
	}
}

func TestExpandCollapse(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "", "a")
	createNote(t, router, a.ID, "a1")

	if !applied(t, do(t, router, http.MethodPut, "/notes/"+a.ID+"/expanded", map[string]bool{"expanded": false})) {
		t.Fatal("collapse not applied")
	}
	v := decodeBody[View](t, do(t, router, http.MethodGet, "/tree", nil))
	for _, row := range v.Rows {
		if row.ID == a.ID && row.Expanded {
			t.Error("row still expanded")
		}
	}
	if w := do(t, router, http.MethodPut, "/notes/nope/expanded", map[string]bool{"expanded": true}); w.Code != http.StatusNotFound {
		t.Errorf("unknown row = %d, want 404", w.Code)
	}
}

func TestSelectionAndClipboard(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "", "a")
	b := createNote(t, router, "", "b")

	w := do(t, router, http.MethodPost, "/selection", map[string]any{"ids": []string{a.ID, "ghost"}})
	sel := decodeBody[map[string][]string](t, w)["selection"]
	if len(sel) != 1 || sel[0] != a.ID {
		t.Fatalf("selection = %v", sel)
	}

	w = do(t, router, http.MethodPost, "/clipboard/copy", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("copy = %d, body = %s", w.Code, w.Body.String())
	}
	if st := decodeBody[noteservice.ClipboardState](t, w); st.Count != 1 || st.Text != "a" {
		t.Errorf("clipboard = %+v", st)
	}

	w = do(t, router, http.MethodPost, "/clipboard/paste", map[string]string{"target": b.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("paste = %d, body = %s", w.Code, w.Body.String())
	}
	ids := decodeBody[PasteResponse](t, w).IDs
	if len(ids) != 1 {
		t.Fatalf("pasted = %v", ids)
	}
	if got := decodeBody[noteJSON](t, do(t, router, http.MethodGet, "/notes/"+ids[0], nil)); got.ParentID != b.ID || got.Content != "a" {
		t.Errorf("pasted note = %+v", got)
	}

	if st := decodeBody[noteservice.ClipboardState](t, do(t, router, http.MethodGet, "/clipboard", nil)); st.Pending {
		t.Error("copy must not be pending")
	}
}

func TestImport(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/imports", map[string]string{
		"format": "text",
		"data":   "trip\n    ☐ book flights\n    pack",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	ids := decodeBody[PasteResponse](t, w).IDs
	if len(ids) != 1 {
		t.Fatalf("ids = %v", ids)
	}
	if w := do(t, router, http.MethodPost, "/imports", map[string]string{"format": "xml", "data": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad format = %d, want 400", w.Code)
	}
}

func TestEditSession(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "")

	if w := do(t, router, http.MethodPost, "/edit/input", map[string]string{"text": "x"}); w.Code != http.StatusConflict {
		t.Errorf("input without session = %d, want 409", w.Code)
	}

	w := do(t, router, http.MethodPost, "/edit/start", map[string]string{"id": n.ID, "at": "start"})
	if w.Code != http.StatusOK {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	if st := decodeBody[noteservice.EditState](t, w); st.State != "editing" || st.NoteID != n.ID {
		t.Errorf("state = %+v", st)
	}

	if w := do(t, router, http.MethodPost, "/edit/input", map[string]string{"text": "hello"}); w.Code != http.StatusOK {
		t.Fatalf("input = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/edit/key", map[string]string{"key": "bogus"}); w.Code != http.StatusBadRequest {
		t.Errorf("bogus key = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/edit/key", map[string]string{"key": "Enter"})
	if w.Code != http.StatusOK {
		t.Fatalf("enter = %d, body = %s", w.Code, w.Body.String())
	}
	kr := decodeBody[EditKeyResponse](t, w)
	if !kr.Handled || kr.Edit.NoteID == n.ID {
		t.Errorf("enter should open a new sibling: %+v", kr)
	}

	if w := do(t, router, http.MethodPost, "/edit/finish", nil); w.Code != http.StatusOK {
		t.Fatalf("finish = %d", w.Code)
	}
	if got := decodeBody[noteJSON](t, do(t, router, http.MethodGet, "/notes/"+n.ID, nil)); got.Content != "hello" {
		t.Errorf("content = %q, want hello", got.Content)
	}
	if st := decodeBody[noteservice.EditState](t, do(t, router, http.MethodGet, "/edit", nil)); st.State != "idle" {
		t.Errorf("state = %q, want idle", st.State)
	}
}

func TestExportAndServe(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "trip")
	createNote(t, router, n.ID, "pack")

	w := do(t, router, http.MethodPost, "/exports/"+n.ID, map[string]string{"format": "text"})
	if w.Code != http.StatusCreated {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeBody[ExportResponse](t, w)
	if !strings.HasSuffix(resp.Name, ".txt") {
		t.Errorf("name = %q", resp.Name)
	}

	w = do(t, router, http.MethodGet, "/exports/"+resp.Name, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("serve = %d", w.Code)
	}
	if w.Body.String() != "trip\n    pack\n" {
		t.Errorf("body = %q", w.Body.String())
	}

	list := decodeBody[map[string][]json.RawMessage](t, do(t, router, http.MethodGet, "/exports", nil))
	if len(list["exports"]) != 1 {
		t.Errorf("exports = %d, want 1", len(list["exports"]))
	}

	if w := do(t, router, http.MethodGet, "/exports/nope.txt", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing export = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/exports/.hidden", nil); w.Code != http.StatusBadRequest {
		t.Errorf("dot file = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/exports/missing", map[string]string{}); w.Code != http.StatusNotFound {
		t.Errorf("export of missing note = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	createNote(t, router, "", "buy oat milk")
	createNote(t, router, "", "call plumber")

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodGet, "/search?q=milk", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	res := decodeBody[SearchResponse](t, w).Results
	if len(res) != 1 || res[0].Content != "buy oat milk" {
		t.Errorf("results = %+v", res)
	}
}

// failingStore fails every insert the way a locked or full database would.
type failingStore struct {
	*store.DB
}

func (failingStore) CreateNote(context.Context, string, string, int) (string, error) {
	return "", errors.New("disk I/O error")
}

func TestStoreFailureIsTransient(t *testing.T) {
	_, exports := testutil.TestDir(t)
	svc := newTestService(t, failingStore{testutil.TestStore(t)})
	router := NewRouter(svc, false, "", nil, exports)

	w := do(t, router, http.MethodPost, "/notes", map[string]string{"content": "x"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if body := decodeBody[errResponse](t, w); !body.Transient {
		t.Errorf("body = %+v, want transient", body)
	}
	v := decodeBody[View](t, do(t, router, http.MethodGet, "/tree", nil))
	if len(v.Rows) != 1 {
		t.Errorf("rows = %d, want only the root", len(v.Rows))
	}
}

// Auth tests.

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/tree", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret")
	if w := do(t, router, http.MethodGet, "/tree", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/tree", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/tree", nil); w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := newTestService(t, testutil.TestStore(t))

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler, nil)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForGet(t *testing.T) {
	router := testEnv(t, "secret")
	w := do(t, router, http.MethodPost, "/focus/up?access_token=secret", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestExportsUnmountedWithoutProvider(t *testing.T) {
	router := testEnvWithSSE(t, false, "")
	if w := do(t, router, http.MethodGet, "/exports", nil); w.Code != http.StatusNotFound {
		t.Errorf("exports without provider = %d, want 404", w.Code)
	}
}
