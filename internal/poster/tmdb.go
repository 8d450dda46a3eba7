package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/kamusis/reel/internal/logging"
)

// TMDBConfig configures the TMDB metadata client.
type TMDBConfig struct {
	APIKey    string
	APIBase   string // e.g. https://api.themoviedb.org/3
	ImageBase string // e.g. https://image.tmdb.org/t/p/w500
	Language  string
	Timeout   time.Duration
	// RatePerSecond caps outgoing requests; zero disables limiting.
	RatePerSecond float64
}

// TMDB resolves posters through The Movie Database REST API.
type TMDB struct {
	cfg     TMDBConfig
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
}

// NewTMDB constructs a TMDB client guarded by a circuit breaker.
//
// Breaker: opens after 5 consecutive failures, half-opens after 30s.
func NewTMDB(cfg TMDBConfig) *TMDB {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.themoviedb.org/3"
	}
	if cfg.ImageBase == "" {
		cfg.ImageBase = "https://image.tmdb.org/t/p/w500"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	t := &TMDB{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(cfg.RatePerSecond)+1)
	}
	t.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing poster is an answer, not an outage, and a caller that
		// went away says nothing about TMDB health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoPosterPath) || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return t
}

var (
	errNoPosterPath = errors.New("no poster_path in response")
	errCallerGone   = errors.New("request abandoned by caller")
)

// Resolve implements Resolver.
func (t *TMDB) Resolve(ctx context.Context, movieID int64) (string, error) {
	if t.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: TMDB API key is not configured (set REEL_TMDB_API_KEY)", ErrPosterUnavailable)
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrPosterUnavailable, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: movie %d: %v", ErrPosterUnavailable, movieID, err)
	}
	u, err := t.cb.Execute(func() (string, error) {
		u, err := t.fetch(ctx, movieID)
		if err != nil && ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", errCallerGone, ctx.Err())
		}
		return u, err
	})
	if err != nil {
		return "", fmt.Errorf("%w: movie %d: %v", ErrPosterUnavailable, movieID, err)
	}
	return u, nil
}

func (t *TMDB) fetch(ctx context.Context, movieID int64) (string, error) {
	q := url.Values{}
	q.Set("api_key", t.cfg.APIKey)
	q.Set("language", t.cfg.Language)
	endpoint := t.cfg.APIBase + "/movie/" + strconv.FormatInt(movieID, 10) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", redactURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("cannot read metadata response: %w", redactURL(err))
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", errNoPosterPath
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("metadata request failed: HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		PosterPath *string `json:"poster_path"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("cannot parse metadata response: %w", err)
	}
	if parsed.PosterPath == nil || strings.TrimSpace(*parsed.PosterPath) == "" {
		return "", errNoPosterPath
	}
	return JoinURL(t.cfg.ImageBase, *parsed.PosterPath), nil
}

// redactURL strips the request URL, which carries the API key, from
// transport errors. The underlying cause stays reachable through errors.Is.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return fmt.Errorf("%s request: %w", ue.Op, ue.Err)
}
