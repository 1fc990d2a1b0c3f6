package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/flashlearn/internal/clock"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/library"
	"github.com/conorfennell/flashlearn/internal/prefs"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/study"
)

type testServer struct {
	*Server
	clock *clock.FakeClock
	store *storage.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := storage.NewMemory()
	lib := library.Open(store, logger)

	srv, err := NewServer(Deps{
		Controller:  study.NewController(lib, study.WithClock(clk), study.WithLogger(logger)),
		Library:     lib,
		Importer:    importer.New(lib, nil, logger),
		Generator:   generator.NewMock(clk, 0),
		Store:       store,
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("NewServer returned an unexpected error: %v", err)
	}
	return &testServer{Server: srv, clock: clk, store: store}
}

func (ts *testServer) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (ts *testServer) apiSession(t *testing.T) sessionResponse {
	t.Helper()
	rr := ts.get(t, "/api/session")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /api/session, but got %d", rr.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode session JSON: %v", err)
	}
	return resp
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, but got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"FlashLearn", "All Categories", "Mental Math", "Start Learning"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected the home page to contain %q", want)
		}
	}

	if rr := ts.get(t, "/health"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("Expected a healthy response, but got %d %q", rr.Code, rr.Body.String())
	}
	if rr := ts.get(t, "/static/style.css"); rr.Code != http.StatusOK {
		t.Errorf("Expected the stylesheet to be served, but got %d", rr.Code)
	}
}

func TestStudyFlow(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.post(t, "/session", url.Values{"category": {"All Categories"}, "difficulty": {"All Levels"}, "count": {"5"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, but got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "0 / 5") {
		t.Errorf("Expected progress 0 / 5, but got %s", rr.Body.String())
	}

	resp := ts.apiSession(t)
	if resp.State != "active" || resp.Total != 5 || resp.Card == nil {
		t.Fatalf("Unexpected session: %+v", resp)
	}

	if rr := ts.post(t, "/session/flip", nil); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), template.HTMLEscapeString(resp.Card.Answer)) {
		t.Errorf("Expected the answer after a flip, but got %d", rr.Code)
	}

	if rr := ts.post(t, "/session/judge", url.Values{"verdict": {"know"}}); rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, but got %d", rr.Code)
	}
	if rr := ts.post(t, "/session/judge", url.Values{"verdict": {"dont_know"}}); rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 while locked, but got %d", rr.Code)
	}
	ts.clock.Advance(study.DefaultKnowDelay)

	if got := ts.apiSession(t); got.Done != 1 || got.Locked {
		t.Errorf("Expected one card done after the delay, but got %+v", got)
	}

	for i := 0; i < 4; i++ {
		ts.post(t, "/session/judge", url.Values{"verdict": {"know"}})
		ts.clock.Advance(study.DefaultKnowDelay)
	}
	final := ts.apiSession(t)
	if final.State != "complete" || final.Summary == nil {
		t.Fatalf("Expected a complete session with a summary, but got %+v", final)
	}
	if final.Summary.Questions != 5 || final.Summary.KnownFirstTry != 5 {
		t.Errorf("Unexpected summary: %+v", final.Summary)
	}
	if rr := ts.get(t, "/session"); !strings.Contains(rr.Body.String(), "Known on first try") {
		t.Error("Expected the summary partial after completion")
	}
}

func TestStartErrors(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name     string
		form     url.Values
		expected int
	}{
		{name: "no matching cards", form: url.Values{"category": {"Nope"}, "count": {"5"}}, expected: http.StatusUnprocessableEntity},
		{name: "bad count", form: url.Values{"count": {"many"}}, expected: http.StatusBadRequest},
		{name: "zero count", form: url.Values{"count": {"0"}}, expected: http.StatusBadRequest},
		{name: "bad difficulty", form: url.Values{"difficulty": {"Extreme"}}, expected: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := ts.post(t, "/session", tc.form); rr.Code != tc.expected {
				t.Errorf("Expected status %d, but got %d", tc.expected, rr.Code)
			}
		})
	}
	if rr := ts.post(t, "/session/judge", url.Values{"verdict": {"know"}}); rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 without a session, but got %d", rr.Code)
	}
	if rr := ts.post(t, "/session/judge", url.Values{"verdict": {"perhaps"}}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown verdict, but got %d", rr.Code)
	}
}

func upload(t *testing.T, ts *testServer, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func TestImport(t *testing.T) {
	ts := newTestServer(t)

	rr := upload(t, ts, "deck.csv", "text/csv", "Q1,A1\nQ2,A2\n")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "2 flashcards imported") {
		t.Fatalf("Expected a successful import, but got %d %q", rr.Code, rr.Body.String())
	}
	if !ts.Library.Custom() || len(ts.Library.Active()) != 2 {
		t.Errorf("Expected 2 custom cards, but got %d", len(ts.Library.Active()))
	}

	if rr := upload(t, ts, "deck.pdf", "application/pdf", "x"); rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for a pdf, but got %d", rr.Code)
	}
	if rr := upload(t, ts, "bad.csv", "text/csv", "\"Q1,A1\"\n\"Q2\"\n"); rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "line 2") {
		t.Errorf("Expected 422 naming line 2, but got %d %q", rr.Code, rr.Body.String())
	}
	if rr := upload(t, ts, "empty.csv", "text/csv", "\n\n"); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for an empty file, but got %d", rr.Code)
	}
	if len(ts.Library.Active()) != 2 {
		t.Error("Expected failed imports to leave the cards untouched")
	}
}

func TestGenerateAndReset(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.post(t, "/generate", url.Values{"topic": {"Go"}, "difficulty": {"Hard"}, "count": {"5"}})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "5 flashcards created") {
		t.Fatalf("Expected a successful generation, but got %d %q", rr.Code, rr.Body.String())
	}
	if got := len(ts.Library.Active()); got != 5 {
		t.Errorf("Expected 5 generated cards, but got %d", got)
	}

	if rr := ts.post(t, "/generate", url.Values{"topic": {"  "}}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a blank topic, but got %d", rr.Code)
	}
	if rr := ts.post(t, "/generate", url.Values{"topic": {"Go"}, "count": {"7"}}); rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected a generation failure for count 7, but got %d", rr.Code)
	}

	ts.post(t, "/session", url.Values{"count": {"5"}})
	if rr := ts.post(t, "/reset", nil); rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from reset, but got %d", rr.Code)
	}
	if ts.Library.Custom() {
		t.Error("Expected the defaults after reset")
	}
	if got := ts.apiSession(t); got.State != "idle" {
		t.Errorf("Expected no session after reset, but got %q", got.State)
	}
}

func TestDarkModeToggle(t *testing.T) {
	ts := newTestServer(t)
	if rr := ts.post(t, "/darkmode", nil); rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, but got %d", rr.Code)
	}
	if !prefs.DarkMode(ts.store) {
		t.Error("Expected dark mode to be on")
	}
	if !strings.Contains(ts.get(t, "/").Body.String(), `class="dark"`) {
		t.Error("Expected the page to use the dark class")
	}
}

func TestAPISessionCORS(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected the origin to be allowed, but got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for an unknown origin, but got %q", got)
	}
}
