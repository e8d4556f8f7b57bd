package finn

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/nordvik/finndeals/internal/cache"
)

// testConfig returns a config with pacing disabled, pointed at a test
// server.
func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RequestTimeout = 5 * time.Second
	cfg.MaxRetries = 0
	cfg.PageDelayMin = 0
	cfg.PageDelayMax = 0
	cfg.DetailDelayMin = 0
	cfg.DetailDelayMax = 0
	return cfg
}

func TestClientSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil)
	if _, err := c.fetchPage(context.Background(), server.URL, ""); err != nil {
		t.Fatalf("fetchPage: %v", err)
	}

	if !strings.HasPrefix(gotLang, "nb-NO") {
		t.Errorf("Accept-Language = %q, want Norwegian first", gotLang)
	}
	known := false
	for _, ua := range userAgents {
		if gotUA == ua {
			known = true
			break
		}
	}
	if !known {
		t.Errorf("User-Agent %q not from the rotation pool", gotUA)
	}
}

func TestClientDecodesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html>komprimert</html>"))
		gz.Close()
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil)
	body, err := c.fetchPage(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("fetchPage: %v", err)
	}
	if body != "<html>komprimert</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestClientDecodesBrotli(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		br.Write([]byte("<html>brotli</html>"))
		br.Close()
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil)
	body, err := c.fetchPage(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("fetchPage: %v", err)
	}
	if body != "<html>brotli</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestClientRetriesFailedFetch(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	c := NewClient(cfg, nil)

	body, err := c.fetchPage(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("fetchPage: %v", err)
	}
	if body != "recovered" {
		t.Errorf("body = %q", body)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestClientFailsAfterRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil)
	_, err := c.fetchPage(context.Background(), server.URL, "")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %v, want HTTP 403 mention", err)
	}
}

func TestClientUsesPageCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	pageCache, err := cache.New(filepath.Join(t.TempDir(), "pages.json"))
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	c := NewClient(testConfig(server.URL), pageCache)

	key := cache.SearchKey("q=iphone", 1)
	for i := 0; i < 3; i++ {
		body, err := c.fetchPage(context.Background(), server.URL, key)
		if err != nil {
			t.Fatalf("fetchPage %d: %v", i, err)
		}
		if body != "fresh" {
			t.Errorf("fetchPage %d body = %q", i, body)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1 (cache should serve repeats)", got)
	}
}

func TestClientHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.fetchPage(ctx, server.URL, ""); err == nil {
		t.Fatal("expected context error")
	}
}
