// internal/httpserver/server.go
//
// HTTP server wiring for the Numble backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     access log, CORS, per-route rate limits).
//   - Public endpoints: "/", "/health", "/debug/catalog".
//   - Game endpoints: POST /guess, GET /hint, GET /state, POST /game/new,
//     GET /game/{date} (routes_game.go).
//   - Leaderboard endpoint: GET /leaderboard (routes_daily.go).
//   - Anonymous session cookie handling (session.go).
//
// Notes:
//   - Every player gets a signed session cookie on first contact; the game
//     state itself lives in the session store, never in the cookie.
//   - Game-rule failures are reported as 200 {"error": "..."} so the page can
//     show them inline; transport problems use 4xx/5xx.

package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/assets"
	"github.com/robalobadob/numble/internal/config"
	"github.com/robalobadob/numble/internal/leaderboard"
	"github.com/robalobadob/numble/internal/primes"
	"github.com/robalobadob/numble/internal/ratelimit"
	"github.com/robalobadob/numble/internal/store"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config      config.Config
	Catalog     *primes.Catalog
	Sessions    store.Store
	Leaderboard leaderboard.Store
	Now         func() time.Time // defaults to time.Now
}

// Server bundles the router with the game's collaborators.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	catalog  *primes.Catalog
	sessions store.Store
	board    leaderboard.Store
	page     *template.Template
	now      func() time.Time

	guessLimit   *ratelimit.Limiter
	hintLimit    *ratelimit.Limiter
	defaultLimit *ratelimit.Limiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) (*Server, error) {
	if d.Catalog == nil || d.Catalog.Len() == 0 {
		return nil, fmt.Errorf("httpserver: empty prime catalog")
	}
	if d.Sessions == nil {
		d.Sessions = store.NewMemoryStore()
	}
	if d.Leaderboard == nil {
		d.Leaderboard = leaderboard.NewMemory()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config.Location == nil {
		d.Config.Location = time.UTC
	}
	pageSrc, err := assets.Page()
	if err != nil {
		return nil, fmt.Errorf("httpserver: load page: %w", err)
	}
	page, err := template.New("index").Parse(pageSrc)
	if err != nil {
		return nil, fmt.Errorf("httpserver: parse page: %w", err)
	}

	rl := d.Config.RateLimits
	s := &Server{
		r:            chi.NewRouter(),
		cfg:          d.Config,
		catalog:      d.Catalog,
		sessions:     d.Sessions,
		board:        d.Leaderboard,
		page:         page,
		now:          d.Now,
		guessLimit:   ratelimit.New("guess", rl.GuessPerMinute),
		hintLimit:    ratelimit.New("hint", rl.HintPerMinute),
		defaultLimit: ratelimit.New("default", rl.DefaultPerMinute),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: s.cfg.ClientOrigin != "*",
		MaxAge:           300,
	}))
	s.r.Use(jsonContentType) // default JSON responses

	// --- diagnostics ---
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/catalog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"primes": s.catalog.Len(),
			"first":  s.catalog.At(0),
			"last":   s.catalog.At(s.catalog.Len() - 1),
		})
	})

	// --- game ---
	s.r.Group(func(r chi.Router) {
		r.With(s.guessLimit.Handler).Post("/guess", s.handleGuess)
		r.With(s.hintLimit.Handler).Get("/hint", s.handleHint)

		r.Group(func(r chi.Router) {
			r.Use(s.defaultLimit.Handler)
			r.Get("/", s.handleIndex)
			r.Get("/state", s.handleState)
			r.Post("/game/new", s.handleNewGame)
			r.Get("/game/{date}", s.handleGameForDate)
			s.mountDaily(r)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s, nil
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Sweep evicts idle sessions and rate-limit buckets.
func (s *Server) Sweep() {
	now := s.now()
	sessions := s.sessions.Sweep(now.Add(-s.cfg.SessionTTL))
	clients := s.guessLimit.Sweep(now.Add(-10*time.Minute)) +
		s.hintLimit.Sweep(now.Add(-10*time.Minute)) +
		s.defaultLimit.Sweep(now.Add(-10*time.Minute))
	if sessions > 0 || clients > 0 {
		log.Debug().
			Int("sessions", sessions).
			Int("clients", clients).
			Int("live", s.sessions.Len()).
			Msg("swept idle state")
	}
}

// RunJanitor calls Sweep every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured log line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleIndex renders the game page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ensureSession(w, r); err != nil {
		log.Error().Err(err).Msg("ensure session")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Execute(w, map[string]any{
		"MaxAttempts": s.cfg.Rules.MaxAttempts,
		"Date":        s.todayKey(),
	})
	if err != nil {
		log.Error().Err(err).Msg("render page")
	}
}
