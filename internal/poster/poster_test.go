package poster

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestTMDB(t *testing.T, h http.HandlerFunc) *TMDB {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewTMDB(TMDBConfig{
		APIKey:    "k",
		APIBase:   srv.URL + "/3/",
		ImageBase: "https://img.example/t/p/w500/",
	})
}

func TestTMDB_ResolveComposesURL(t *testing.T) {
	tm := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/19995" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "k" || r.URL.Query().Get("language") != "en-US" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"id":19995,"poster_path":"/abc.jpg"}`))
	})

	u, err := tm.Resolve(context.Background(), 19995)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u != "https://img.example/t/p/w500/abc.jpg" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestTMDB_Unavailable(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"null poster", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"poster_path":null}`)) }},
		{"missing poster", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
		{"not found", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{`)) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tm := newTestTMDB(t, c.h)
			if _, err := tm.Resolve(context.Background(), 1); !errors.Is(err, ErrPosterUnavailable) {
				t.Fatalf("expected ErrPosterUnavailable, got %v", err)
			}
		})
	}
}

func TestTMDB_MissingAPIKey(t *testing.T) {
	tm := NewTMDB(TMDBConfig{})
	if _, err := tm.Resolve(context.Background(), 1); !errors.Is(err, ErrPosterUnavailable) {
		t.Fatalf("expected ErrPosterUnavailable, got %v", err)
	}
}

func TestTMDB_BreakerOpensOnOutage(t *testing.T) {
	var hits int32
	tm := newTestTMDB(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	for i := 0; i < 8; i++ {
		_, _ = tm.Resolve(context.Background(), 1)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("expected breaker to stop traffic after 5 failures, got %d hits", got)
	}
}

func TestTMDB_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tm := NewTMDB(TMDBConfig{APIKey: "SECRET123", APIBase: base})
	_, err := tm.Resolve(context.Background(), 7)
	if !errors.Is(err, ErrPosterUnavailable) {
		t.Fatalf("expected ErrPosterUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "SECRET123") {
		t.Fatalf("error leaks the API key: %v", err)
	}
}

func TestTMDB_TruncatedBodyIsReadError(t *testing.T) {
	tm := newTestTMDB(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte(`{"poster_path":`))
	})
	_, err := tm.Resolve(context.Background(), 1)
	if !errors.Is(err, ErrPosterUnavailable) {
		t.Fatalf("expected ErrPosterUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "cannot read metadata response") {
		t.Fatalf("expected a read error, got %v", err)
	}
}

func TestTMDB_CancelledRequestsDoNotOpenBreaker(t *testing.T) {
	tm := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/99") {
			_, _ = w.Write([]byte(`{"poster_path":"/ok.jpg"}`))
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = tm.Resolve(ctx, id)
		}(int64(i + 1))
	}
	wg.Wait()

	// Already-cancelled callers must not reach the breaker at all.
	done, stop := context.WithCancel(context.Background())
	stop()
	for i := 0; i < 8; i++ {
		_, _ = tm.Resolve(done, 1)
	}

	u, err := tm.Resolve(context.Background(), 99)
	if err != nil {
		t.Fatalf("breaker tripped by cancelled callers: %v", err)
	}
	if u != "https://img.example/t/p/w500/ok.jpg" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestTMDB_UpstreamTimeoutStillTripsBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	tm := NewTMDB(TMDBConfig{APIKey: "k", APIBase: srv.URL, Timeout: 20 * time.Millisecond})
	for i := 0; i < 7; i++ {
		_, _ = tm.Resolve(context.Background(), 1)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("expected breaker to open after 5 timeouts, got %d hits", got)
	}
}

func TestJoinURL(t *testing.T) {
	cases := [][3]string{
		{"https://a/b/", "/c.jpg", "https://a/b/c.jpg"},
		{"https://a/b", "c.jpg", "https://a/b/c.jpg"},
	}
	for _, c := range cases {
		if got := JoinURL(c[0], c[1]); got != c[2] {
			t.Fatalf("JoinURL(%q,%q)=%q want %q", c[0], c[1], got, c[2])
		}
	}
}

func TestCached_StoresOnlySuccesses(t *testing.T) {
	var calls int32
	next := ResolverFunc(func(_ context.Context, id int64) (string, error) {
		atomic.AddInt32(&calls, 1)
		if id == 2 {
			return "", ErrPosterUnavailable
		}
		return "u1", nil
	})
	c := NewCached(next, NewMemoryStore(4, time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if u, err := c.Resolve(ctx, 1); err != nil || u != "u1" {
			t.Fatalf("Resolve(1) = %q, %v", u, err)
		}
		if _, err := c.Resolve(ctx, 2); !errors.Is(err, ErrPosterUnavailable) {
			t.Fatalf("Resolve(2) err = %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Fatalf("expected 1 call for id 1 and 3 for id 2, got %d", got)
	}
}

func TestMemoryStore_EvictsLRUAndExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, 1, "a")
	_ = s.Set(ctx, 2, "b")
	if _, ok, _ := s.Get(ctx, 1); !ok {
		t.Fatalf("expected hit for 1")
	}
	_ = s.Set(ctx, 3, "c") // evicts 2, the least recently used
	if _, ok, _ := s.Get(ctx, 2); ok {
		t.Fatalf("expected 2 to be evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d", s.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, 1); ok {
		t.Fatalf("expected 1 to expire")
	}
}
