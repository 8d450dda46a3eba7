// Package web serves the recommendation page and a small JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamusis/reel/internal/logging"
	"github.com/kamusis/reel/internal/recommend"
)

// Server exposes an Engine over HTTP.
type Server struct {
	engine  *recommend.Engine
	metrics *Metrics
	router  chi.Router
}

// NewServer builds the router for engine.
func NewServer(engine *recommend.Engine) *Server {
	s := &Server{engine: engine, metrics: NewMetrics()}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/", s.handleIndex)
	r.Get("/recommend", s.handleRecommendPage)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/titles", s.handleTitles)
		r.Get("/recommend", s.handleRecommendAPI)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type pageData struct {
	Titles   []string
	Selected string
	Items    []recommend.Item
	Error    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{Titles: s.engine.Catalog().Titles()})
}

func (s *Server) handleRecommendPage(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	data := pageData{Titles: s.engine.Catalog().Titles(), Selected: title}

	res, err := s.recommend(r.Context(), title)
	if err != nil {
		data.Error = err.Error()
		s.render(w, r, statusFor(err), data)
		return
	}
	data.Items = res.Items
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render page")
	}
}

type titlesResponse struct {
	Titles []string `json:"titles"`
}

func (s *Server) handleTitles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, titlesResponse{Titles: s.engine.Catalog().Titles()})
}

type recommendationJSON struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url"`
	Fallback  bool    `json:"poster_fallback,omitempty"`
}

type recommendResponse struct {
	Query           string               `json:"query"`
	Recommendations []recommendationJSON `json:"recommendations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRecommendAPI(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	res, err := s.recommend(r.Context(), title)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	out := recommendResponse{Query: res.Query, Recommendations: make([]recommendationJSON, 0, len(res.Items))}
	for _, it := range res.Items {
		out.Recommendations = append(out.Recommendations, recommendationJSON{
			ID:        it.Movie.ID,
			Title:     it.Movie.Title,
			Score:     it.Score,
			PosterURL: it.PosterURL,
			Fallback:  it.PosterErr != nil,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

var errMissingTitle = errors.New("title query parameter is required")

func (s *Server) recommend(ctx context.Context, title string) (recommend.Result, error) {
	if title == "" {
		s.metrics.Requests.WithLabelValues("bad_request").Inc()
		return recommend.Result{}, errMissingTitle
	}
	start := time.Now()
	res, err := s.engine.Recommend(ctx, title)
	s.metrics.Latency.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, recommend.ErrNotFound) {
			outcome = "not_found"
		}
		s.metrics.Requests.WithLabelValues(outcome).Inc()
		return recommend.Result{}, err
	}
	s.metrics.Requests.WithLabelValues("ok").Inc()
	for _, it := range res.Items {
		if it.PosterErr != nil {
			s.metrics.PosterFallbacks.Inc()
		}
	}
	return res, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errMissingTitle):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID tags each request with an X-Request-ID (incoming or generated).
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
