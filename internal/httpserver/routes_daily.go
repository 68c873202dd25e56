// internal/httpserver/routes_daily.go
//
// Leaderboard route for the daily puzzle:
//   - GET /leaderboard?date=YYYY-MM-DD → every recorded win for the date
//     (default today) plus a summary.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/internal/daily"
	"github.com/robalobadob/numble/internal/leaderboard"
)

// mountDaily registers the leaderboard route.
func (s *Server) mountDaily(r chi.Router) {
	r.Get("/leaderboard", s.handleLeaderboard)
}

// lbRes is returned by /leaderboard.
type lbRes struct {
	Date    string              `json:"date"`
	Entries []int               `json:"entries"`
	Summary leaderboard.Summary `json:"summary"`
}

// handleLeaderboard returns the attempt counts for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.todayKey()
	} else if _, err := daily.ParseDate(date); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "Invalid date format. Use YYYY-MM-DD."})
		return
	}
	entries, err := s.board.Query(r.Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("leaderboard query")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}
	writeJSON(w, http.StatusOK, lbRes{
		Date:    date,
		Entries: entries,
		Summary: leaderboard.Summarize(entries, s.cfg.Rules.MaxAttempts),
	})
}
