package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
	"github.com/andybalholm/brotli"
	"go.uber.org/zap/zaptest"
)

const samplePage = `<html><head>
<link rel="stylesheet" href="a.css"><LINK href="b.css" rel='stylesheet'>
<script src="x.js"></script><script>var a=1;</script>
</head><body><img src="1.png"><IMG src="2.png" /><img
src="3.png"><form action="/s"></form></body></html>`

func TestFetcher_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	f := New(Config{Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	result, err := f.Fetch(context.Background(), server.URL, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotUA != DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", gotUA)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", result.StatusCode)
	}
	if result.Header("x-frame-options") != "DENY" {
		t.Errorf("expected headers to be captured")
	}
	if result.Error != "" {
		t.Errorf("expected no error, got %q", result.Error)
	}

	s := result.Stats
	if s.ImageCount != 3 || s.ScriptCount != 2 || s.StylesheetCount != 2 || s.FormCount != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.PageSizeKB != float64(len(samplePage))/1024 {
		t.Errorf("unexpected page size %v", s.PageSizeKB)
	}
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><title>moved</title></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := New(Config{}, nil).Fetch(context.Background(), server.URL+"/old", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(result.FinalURL, "/new") {
		t.Errorf("expected final URL to be /new, got %q", result.FinalURL)
	}
	if !strings.Contains(result.HTML, "moved") {
		t.Errorf("expected redirected body, got %q", result.HTML)
	}
}

func TestFetcher_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	result, err := New(Config{}, nil).Fetch(context.Background(), server.URL, true)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, sharedErrors.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.URL != server.URL {
		t.Errorf("expected *FetchError for %s, got %v", server.URL, err)
	}
	want := "HTTP 404 error for " + server.URL
	if result.Error != want {
		t.Errorf("expected %q, got %q", want, result.Error)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected *StatusError with 404, got %v", err)
	}
	if err.Error() != "unexpected status 404 from "+server.URL {
		t.Errorf("unexpected error value %q", err.Error())
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	result, err := New(Config{Timeout: 100 * time.Millisecond}, nil).Fetch(context.Background(), server.URL, false)
	if !errors.Is(err, sharedErrors.ErrFetchFailed) {
		t.Fatalf("expected fetch failure on timeout, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "request failed:") {
		t.Errorf("unexpected error value %q", err.Error())
	}
	if !strings.HasPrefix(result.Error, "Request exception: request failed:") {
		t.Errorf("unexpected report message %q", result.Error)
	}
}

func TestFetcher_DecodesCompressedBodies(t *testing.T) {
	page := "<html><body><img src=a.png></body></html>"

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(page))
	_ = zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(page))
	_ = bw.Close()

	bodies := map[string][]byte{"gzip": gz.Bytes(), "br": br.Bytes()}
	for enc, body := range bodies {
		t.Run(enc, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", enc)
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write(body)
			}))
			defer server.Close()

			result, err := New(Config{}, nil).Fetch(context.Background(), server.URL, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.HTML != page {
				t.Errorf("expected decoded page, got %q", result.HTML)
			}
			if result.Stats.ImageCount != 1 {
				t.Errorf("expected 1 image, got %d", result.Stats.ImageCount)
			}
		})
	}
}

func TestFetcher_DecodesLatin1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	result, err := New(Config{}, nil).Fetch(context.Background(), server.URL, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HTML != "<p>café</p>" {
		t.Errorf("expected UTF-8 conversion, got %q", result.HTML)
	}
}

func TestFetcher_TruncatesOversizedDocument(t *testing.T) {
	page := "<html><body>" + strings.Repeat("<img src=a.png>", 20) + "</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	f := New(Config{MaxBodyBytes: 64}, zaptest.NewLogger(t))
	result, err := f.Fetch(context.Background(), server.URL, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.HTML) != 64 {
		t.Errorf("expected body capped at 64 bytes, got %d", len(result.HTML))
	}
	if !result.Stats.Truncated {
		t.Error("expected truncation to be recorded")
	}

	f = New(Config{MaxBodyBytes: int64(len(page))}, zaptest.NewLogger(t))
	result, err = f.Fetch(context.Background(), server.URL, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats.Truncated || result.HTML != page {
		t.Errorf("document of exactly the cap should not be truncated (truncated=%v, len=%d)", result.Stats.Truncated, len(result.HTML))
	}
}

type fakeCapturer struct {
	img []byte
	err error
}

func (c fakeCapturer) Capture(context.Context, string) ([]byte, error) {
	return c.img, c.err
}

type memoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memoryStore) Save(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[name] = data
	return "/static/screenshots/" + name, nil
}

func TestFetcher_Screenshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	store := &memoryStore{}
	f := New(Config{}, nil, WithScreenshots(fakeCapturer{img: []byte("png")}, store))
	result, err := f.Fetch(context.Background(), server.URL, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.ScreenshotPath, "/static/screenshots/") || !strings.HasSuffix(result.ScreenshotPath, ".png") {
		t.Errorf("unexpected screenshot path %q", result.ScreenshotPath)
	}
	if len(store.files) != 1 {
		t.Errorf("expected one stored file, got %d", len(store.files))
	}
}

func TestFetcher_ScreenshotFailureKeepsFetchData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	f := New(Config{}, zaptest.NewLogger(t), WithScreenshots(fakeCapturer{err: errors.New("no chrome")}, &memoryStore{}))
	result, err := f.Fetch(context.Background(), server.URL, true)
	if err != nil {
		t.Fatalf("capture failure must not fail the fetch: %v", err)
	}
	if !result.CaptureFailed || result.Error != "screenshot capture failed" {
		t.Errorf("expected capture failure to be recorded, got %q", result.Error)
	}
	if result.Failed() {
		t.Error("capture failure should not mark the fetch as failed")
	}
	if result.HTML == "" || result.Stats.ImageCount != 3 {
		t.Error("expected fetch data to be retained")
	}
}
