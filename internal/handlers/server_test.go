package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pep299/article-markdown/internal/config"
	"github.com/pep299/article-markdown/internal/extract"
	"github.com/pep299/article-markdown/internal/fetch"
	"github.com/pep299/article-markdown/internal/model"
	"github.com/pep299/article-markdown/internal/response"
)

// mockRunner returns a fixed result or error
type mockRunner struct {
	result *model.ExtractionResult
	err    error
	calls  []string
}

func (m *mockRunner) Run(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
	m.calls = append(m.calls, req.URL)
	return m.result, m.err
}

func newTestServer(t *testing.T, runner Runner) http.Handler {
	t.Helper()
	s, err := newServer(config.Default(), runner)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s.SetupRoutes()
}

func getPage(t *testing.T, handler http.Handler, target string) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	if err != nil {
		t.Fatalf("Failed to parse page: %v", err)
	}
	return w, doc
}

func TestPageFormOnly(t *testing.T) {
	runner := &mockRunner{}
	w, doc := getPage(t, newTestServer(t, runner), "/")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Expected text/html content type, got %s", ct)
	}
	if doc.Find("form input[name=url]").Length() != 1 {
		t.Error("Expected a url input in the form")
	}
	if doc.Find("#result").Length() != 0 || doc.Find("#error").Length() != 0 {
		t.Error("Expected neither result nor error without a url")
	}
	if len(runner.calls) != 0 {
		t.Errorf("Expected pipeline not to run, got %d calls", len(runner.calls))
	}
}

func TestPageResult(t *testing.T) {
	markdown := "# Heading\n\nHello <world> & \"friends\""
	runner := &mockRunner{result: &model.ExtractionResult{
		Title:    "Title",
		Excerpt:  "A short excerpt",
		Markdown: markdown,
	}}

	target := "/?url=" + url.QueryEscape("https://example.com/article")
	w, doc := getPage(t, newTestServer(t, runner), target)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "https://example.com/article" {
		t.Errorf("Expected one run for the url, got %v", runner.calls)
	}

	if got := doc.Find("#title p").Text(); got != "Title" {
		t.Errorf("Expected title 'Title', got '%s'", got)
	}
	if got := doc.Find("#excerpt p").Text(); got != "A short excerpt" {
		t.Errorf("Expected excerpt 'A short excerpt', got '%s'", got)
	}
	if got := doc.Find("pre#markdown").Text(); got != markdown {
		t.Errorf("Expected markdown %q, got %q", markdown, got)
	}
	if got, _ := doc.Find("input[name=url]").Attr("value"); got != "https://example.com/article" {
		t.Errorf("Expected input to keep the url, got '%s'", got)
	}
	if doc.Find("#error").Length() != 0 {
		t.Error("Expected no error panel")
	}
}

func TestPageOmitsEmptySections(t *testing.T) {
	runner := &mockRunner{result: &model.ExtractionResult{Markdown: "Hello world"}}

	_, doc := getPage(t, newTestServer(t, runner), "/?url=https://example.com/a")

	if doc.Find("#title").Length() != 0 {
		t.Error("Expected no title section")
	}
	if doc.Find("#excerpt").Length() != 0 {
		t.Error("Expected no excerpt section")
	}
	if doc.Find("#markdown-section").Length() != 1 {
		t.Error("Expected the markdown section")
	}
}

func TestPageCopyButton(t *testing.T) {
	runner := &mockRunner{result: &model.ExtractionResult{Markdown: "Hello world"}}

	_, doc := getPage(t, newTestServer(t, runner), "/?url=https://example.com/a")

	button := doc.Find("#copy-button")
	if button.Length() != 1 {
		t.Fatal("Expected a copy button")
	}
	if got, _ := button.Attr("data-reset-ms"); got != "2000" {
		t.Errorf("Expected confirmation to revert after 2000ms, got '%s'", got)
	}
	if got, _ := button.Attr("data-target"); got != "markdown" {
		t.Errorf("Expected copy target 'markdown', got '%s'", got)
	}
	if got := strings.TrimSpace(button.Text()); got != "コピー" {
		t.Errorf("Expected label 'コピー', got '%s'", got)
	}
	if got, _ := button.Attr("data-copied-label"); got != "コピーしました！" {
		t.Errorf("Expected copied label 'コピーしました！', got '%s'", got)
	}
	// The copy payload is the rendered block itself
	if got := doc.Find("pre#markdown").Text(); got != "Hello world" {
		t.Errorf("Expected copy payload 'Hello world', got '%s'", got)
	}
}

func TestPageErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"fetch status", &fetch.Error{URL: "https://example.com", StatusCode: 404}, "Failed to fetch: 404"},
		{"network", &fetch.Error{URL: "https://example.com", Err: errors.New("connection refused")}, "Failed to fetch: connection refused"},
		{"extraction", &extract.Error{URL: "https://example.com", Err: extract.ErrNoContent}, "Could not extract readable content"},
		{"unknown", errors.New("something odd"), "エラーが発生しました"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			runner := &mockRunner{err: test.err}
			w, doc := getPage(t, newTestServer(t, runner), "/?url=https://example.com")

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if got := doc.Find("#error .message").Text(); got != test.message {
				t.Errorf("Expected error '%s', got '%s'", test.message, got)
			}
			if doc.Find("#result").Length() != 0 {
				t.Error("Expected no result panel on error")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	newTestServer(t, &mockRunner{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", result["status"])
	}
	if result["version"] != Version {
		t.Errorf("Expected version '%s', got '%v'", Version, result["version"])
	}
}

func TestExtractAPI(t *testing.T) {
	tests := []struct {
		name   string
		target string
		runner *mockRunner
		status int
		errMsg string
	}{
		{
			name:   "success",
			target: "/api/v1/extract?url=https://example.com/a",
			runner: &mockRunner{result: &model.ExtractionResult{Title: "Title", Markdown: "Hello world"}},
			status: http.StatusOK,
		},
		{
			name:   "missing url",
			target: "/api/v1/extract",
			runner: &mockRunner{},
			status: http.StatusBadRequest,
			errMsg: "url is required",
		},
		{
			name:   "fetch failure",
			target: "/api/v1/extract?url=https://example.com/a",
			runner: &mockRunner{err: &fetch.Error{StatusCode: 500}},
			status: http.StatusBadGateway,
			errMsg: "Failed to fetch: 500",
		},
		{
			name:   "no content",
			target: "/api/v1/extract?url=https://example.com/a",
			runner: &mockRunner{err: &extract.Error{Err: extract.ErrNoContent}},
			status: http.StatusUnprocessableEntity,
			errMsg: "Could not extract readable content",
		},
		{
			name:   "other failure",
			target: "/api/v1/extract?url=https://example.com/a",
			runner: &mockRunner{err: errors.New("boom")},
			status: http.StatusInternalServerError,
			errMsg: "エラーが発生しました",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", test.target, nil)
			w := httptest.NewRecorder()
			newTestServer(t, test.runner).ServeHTTP(w, req)

			if w.Code != test.status {
				t.Errorf("Expected status %d, got %d", test.status, w.Code)
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("Expected CORS header on API route")
			}

			var result response.Response
			if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if result.Error != test.errMsg {
				t.Errorf("Expected error '%s', got '%s'", test.errMsg, result.Error)
			}
			if test.status == http.StatusOK {
				data, ok := result.Data.(map[string]interface{})
				if !ok {
					t.Fatal("Expected data object")
				}
				if data["markdown"] != "Hello world" {
					t.Errorf("Expected markdown 'Hello world', got '%v'", data["markdown"])
				}
			}
		})
	}
}

func TestExtractAPIPreflight(t *testing.T) {
	runner := &mockRunner{}
	req := httptest.NewRequest("OPTIONS", "/api/v1/extract", nil)
	w := httptest.NewRecorder()

	newTestServer(t, runner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(runner.calls) != 0 {
		t.Error("Expected preflight not to run the pipeline")
	}
}

func TestRequestID(t *testing.T) {
	handler := newTestServer(t, &mockRunner{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated X-Request-ID")
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected X-Request-ID 'abc-123', got '%s'", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	w := httptest.NewRecorder()

	newTestServer(t, &mockRunner{}).ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

// TestEndToEnd runs the real pipeline against a local upstream page
func TestEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><body><h1>Title</h1><article><p>Hello world</p></article></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	s, err := NewServer(config.Default())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	handler := s.SetupRoutes()

	_, doc := getPage(t, handler, "/?url="+url.QueryEscape(upstream.URL+"/article"))
	if got := doc.Find("#title p").Text(); got != "Title" {
		t.Errorf("Expected title 'Title', got '%s'", got)
	}
	if got := doc.Find("pre#markdown").Text(); !strings.Contains(got, "Hello world") {
		t.Errorf("Expected markdown to contain 'Hello world', got %q", got)
	}

	_, doc = getPage(t, handler, "/?url="+url.QueryEscape(upstream.URL+"/missing"))
	if got := doc.Find("#error .message").Text(); got != "Failed to fetch: 404" {
		t.Errorf("Expected 'Failed to fetch: 404', got '%s'", got)
	}
}
