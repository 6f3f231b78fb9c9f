package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/noteservice"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/syncer"
	"github.com/starford/granola-sync/internal/testutil"
)

type fakeSyncer struct {
	res   syncer.Result
	err   error
	calls int
}

func (f *fakeSyncer) SyncAll(context.Context) (syncer.Result, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeSyncer) Status() syncer.Status { return syncer.Status{} }

type testEnv struct {
	router   http.Handler
	syncer   *fakeSyncer
	settings *settings.Store
	store    *storage.FS
	db       *index.DB
	persists int
}

func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()
	return newTestEnvWithSSE(t, authToken, nil)
}

func newTestEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) *testEnv {
	t.Helper()
	env := &testEnv{syncer: &fakeSyncer{}}
	_, env.store = testutil.TestVault(t)
	env.db = testutil.TestLedger(t)
	env.settings = settings.NewStore(settings.Defaults(), func(settings.Settings) error {
		env.persists++
		return nil
	})
	svc := noteservice.NewService(env.syncer, env.settings, env.store, env.db)
	env.router = NewRouter(svc, authToken != "", authToken, sseHandler)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestSync_ReturnsResult(t *testing.T) {
	env := newTestEnv(t, "")
	env.syncer.res = syncer.Result{SyncedCount: 2, SyncedTitles: []string{"A", "B"}}

	w := env.do(t, http.MethodPost, "/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sync = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SyncResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Synced != 2 || len(resp.Titles) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if env.syncer.calls != 1 {
		t.Errorf("calls = %d, want 1", env.syncer.calls)
	}
}

func TestSync_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("syncer: %w", apperr.ErrNoToken), http.StatusPreconditionFailed},
		{fmt.Errorf("syncer: %w", apperr.ErrFetch), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		env := newTestEnv(t, "")
		env.syncer.err = tt.err
		w := env.do(t, http.MethodPost, "/sync", nil)
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestSyncStatus_IncludesLastRun(t *testing.T) {
	env := newTestEnv(t, "")
	id, err := env.db.StartRun()
	if err != nil {
		t.Fatal(err)
	}
	if err := env.db.FinishRun(id, index.Run{Status: index.RunSucceeded, SyncedCount: 3}); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodGet, "/sync/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st SyncStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.LastRun == nil || st.LastRun.ID != id || st.LastRun.SyncedCount != 3 {
		t.Errorf("last run = %+v", st.LastRun)
	}

	w = env.do(t, http.MethodGet, "/sync/runs", nil)
	var runs RunListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &runs)
	if len(runs.Runs) != 1 {
		t.Errorf("runs = %d, want 1", len(runs.Runs))
	}
}

func TestSettings_GetAndPut(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/settings", nil)
	var got settings.Settings
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.SyncDirectory != "Granola" {
		t.Errorf("syncDirectory = %q, want Granola", got.SyncDirectory)
	}

	w = env.do(t, http.MethodPut, "/settings", `{"notesToSync": 5, "titleFormat": "prefix", "titlePrefix": "{date}"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put = %d, body = %s", w.Code, w.Body.String())
	}
	cur := env.settings.Get()
	if cur.NotesToSync != 5 || cur.TitleFormat != settings.TitleFormatPrefix {
		t.Errorf("settings = %+v", cur)
	}
	if cur.SyncDirectory != "Granola" {
		t.Errorf("unspecified field changed: %q", cur.SyncDirectory)
	}
	if env.persists != 1 {
		t.Errorf("persists = %d, want 1", env.persists)
	}
}

func TestSettings_PutInvalid(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPut, "/settings", `{"notesToSync": 0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid settings = %d, want 400", w.Code)
	}
	w = env.do(t, http.MethodPut, "/settings", `{"titleFormat": "sideways"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid title format = %d, want 400", w.Code)
	}
	w = env.do(t, http.MethodPut, "/settings", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", w.Code)
	}
	if env.persists != 0 {
		t.Errorf("persists = %d, want 0", env.persists)
	}
}

func TestCustomProperties_UpsertAndDelete(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPut, "/settings/custom-properties", CustomPropertyRequest{Name: "type", Value: "meeting"})
	if w.Code != http.StatusOK {
		t.Fatalf("put = %d, body = %s", w.Code, w.Body.String())
	}
	env.do(t, http.MethodPut, "/settings/custom-properties", CustomPropertyRequest{Name: "people", Value: "{attendees}"})
	env.do(t, http.MethodPut, "/settings/custom-properties", CustomPropertyRequest{Name: "type", Value: "1:1"})

	props := env.settings.Get().CustomProperties
	if len(props) != 2 {
		t.Fatalf("props = %+v, want 2 entries", props)
	}
	if props[0].Name != "type" || props[0].Value != "1:1" {
		t.Errorf("props[0] = %+v, want updated in place", props[0])
	}

	w = env.do(t, http.MethodDelete, "/settings/custom-properties/type", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	props = env.settings.Get().CustomProperties
	if len(props) != 1 || props[0].Name != "people" {
		t.Errorf("props after delete = %+v", props)
	}

	w = env.do(t, http.MethodDelete, "/settings/custom-properties/type", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
	w = env.do(t, http.MethodPut, "/settings/custom-properties", CustomPropertyRequest{Name: " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name = %d, want 400", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/documents", nil)
	if !strings.Contains(w.Body.String(), `"documents":[]`) {
		t.Errorf("empty list body = %s", w.Body.String())
	}

	for i, id := range []string{"a", "b", "c"} {
		row := index.DocumentRow{
			DocumentID: id,
			Path:       "Granola/" + id + ".md",
			Title:      id,
			SyncedAt:   time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		}
		if err := env.db.UpsertDocument(row, "body "+id); err != nil {
			t.Fatal(err)
		}
	}

	w = env.do(t, http.MethodGet, "/documents?limit=2", nil)
	var resp DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Documents) != 2 {
		t.Fatalf("total = %d, page = %d", resp.Total, len(resp.Documents))
	}
	if resp.Documents[0].DocumentID != "c" {
		t.Errorf("first = %q, want most recently synced", resp.Documents[0].DocumentID)
	}
}

func TestGetNote(t *testing.T) {
	env := newTestEnv(t, "")
	content := "---\ngranola_id: doc-1\ntitle: \"Standup\"\n---\n# Standup\n\nWith [[Alice]]\n"
	if err := env.store.Write("Granola/Standup.md", []byte(content)); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodGet, "/notes/Granola/Standup.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d, body = %s", w.Code, w.Body.String())
	}
	var note struct {
		Path     string   `json:"path"`
		Title    string   `json:"title"`
		Links    []string `json:"links"`
		Checksum string   `json:"checksum"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Standup" {
		t.Errorf("title = %q, want Standup", note.Title)
	}
	if len(note.Links) != 1 || note.Links[0] != "Alice" {
		t.Errorf("links = %v", note.Links)
	}
	if note.Checksum == "" {
		t.Error("checksum is empty")
	}

	w = env.do(t, http.MethodGet, "/notes/Granola%2FStandup.md", nil)
	if w.Code != http.StatusOK {
		t.Errorf("encoded path = %d, want 200", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/notes/nope.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/preview", `{"id":"d1","title":"Plan: Q3","created_at":"2024-03-05T10:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preview = %d, body = %s", w.Code, w.Body.String())
	}
	var p noteservice.Preview
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.Path != "Granola/Plan- Q3.md" {
		t.Errorf("path = %q", p.Path)
	}
	if !strings.Contains(p.Content, "granola_id: d1\n") {
		t.Errorf("content = %q", p.Content)
	}
	if exists, _ := env.store.Exists(p.Path); exists {
		t.Error("preview must not write the note")
	}

	w = env.do(t, http.MethodPost, "/preview", `[1,2]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-object = %d, want 400", w.Code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, "")
	if err := env.db.UpsertDocument(index.DocumentRow{DocumentID: "x", Path: "Granola/Roadmap.md", Title: "Roadmap"}, "quarterly roadmap review"); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodGet, "/search?q=roadmap", nil)
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].DocumentID != "x" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	w := env.do(t, http.MethodGet, "/settings", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if env.syncer.calls != 0 {
		t.Error("sync ran without auth")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newTestEnvWithSSE(t, "secret", blockingSSE())

	w := env.do(t, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newTestEnvWithSSE(t, "tok", blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestGetNote_EditedSinceSync(t *testing.T) {
	env := newTestEnv(t, "")
	content := "---\ngranola_id: doc-2\n---\n# Retro\n"
	if err := env.store.Write("Granola/Retro.md", []byte(content)); err != nil {
		t.Fatal(err)
	}
	row := index.DocumentRow{DocumentID: "doc-2", Path: "Granola/Retro.md", Title: "Retro", Checksum: checksum.SumString(content)}
	if err := env.db.UpsertDocument(row, "# Retro\n"); err != nil {
		t.Fatal(err)
	}

	var note struct {
		Edited bool `json:"edited_since_sync"`
	}
	w := env.do(t, http.MethodGet, "/notes/Granola/Retro.md", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Edited {
		t.Error("untouched note reported as edited")
	}

	if err := env.store.Write("Granola/Retro.md", []byte(content+"\nmy own notes\n")); err != nil {
		t.Fatal(err)
	}
	w = env.do(t, http.MethodGet, "/notes/Granola/Retro.md", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if !note.Edited {
		t.Error("hand-edited note not reported")
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	env := newTestEnvWithSSE(t, "tok", blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}

	w = env.do(t, http.MethodGet, "/settings?access_token=tok", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token outside /events = %d, want 401", w.Code)
	}
}

func TestPutSettings_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, "")

	big := `{"titlePrefix": "` + strings.Repeat("x", maxBody) + `"}`
	w := env.do(t, http.MethodPut, "/settings", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d, want 413", w.Code)
	}
}
