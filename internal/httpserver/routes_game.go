// internal/httpserver/routes_game.go
//
// Game routes:
//   - POST /guess       → score a guess against the session target
//   - GET  /hint        → reveal one unsolved digit (once per game)
//   - GET  /state       → current board, for restoring the page after reload
//   - POST /game/new    → start over in the configured mode
//   - GET  /game/{date} → start that date's deterministic puzzle
//
// A win on a dated session appends the attempt count to the leaderboard.
// That write is best effort: failures are logged and the player still gets
// their win response.

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/internal/daily"
	"github.com/robalobadob/numble/internal/game"
	"github.com/robalobadob/numble/internal/leaderboard"
)

// guessReq/Res payloads for POST /guess.
type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	Guess    string      `json:"guess"`
	Feedback []game.Mark `json:"feedback"`
	Message  string      `json:"message"`
	State    game.State  `json:"state"`
	Attempts int         `json:"attempts"`
	Share    string      `json:"share,omitempty"`
}

type errorRes struct {
	Error string `json:"error"`
}

// guessError maps engine errors to the messages shown to players.
func guessError(err error) (string, bool) {
	switch {
	case errors.Is(err, game.ErrInvalidFormat):
		return "Please enter a 5-digit number.", true
	case errors.Is(err, game.ErrNotPrime):
		return "Not a valid 5-digit prime number.", true
	case errors.Is(err, game.ErrNoAttemptsLeft):
		return "No more attempts left!", true
	}
	return "", false
}

// handleGuess validates and applies a guess to the caller's session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json"})
		return
	}

	var (
		out  game.Outcome
		sess game.Session
	)
	err := s.withSession(w, r, func(gs *game.Session) error {
		var err error
		out, err = gs.SubmitGuess(req.Guess, s.now())
		sess = *gs
		return err
	})
	if err != nil {
		if msg, ok := guessError(err); ok {
			writeJSON(w, http.StatusOK, errorRes{Error: msg})
			return
		}
		log.Error().Err(err).Msg("submit guess")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}

	res := guessRes{
		Guess:    out.Guess,
		Feedback: out.Feedback,
		State:    out.State,
		Attempts: out.Attempts,
		Share:    out.Share,
	}
	switch out.State {
	case game.StateWon:
		res.Message = "Congratulations! You guessed it! 🎉"
		s.recordWin(r, sess, out.Attempts)
	case game.StateLost:
		res.Message = fmt.Sprintf("Game Over! The number was %s.", out.Target)
	default:
		res.Message = "Try again!"
	}
	writeJSON(w, http.StatusOK, res)
}

// recordWin appends a dated win to the leaderboard, logging failures.
func (s *Server) recordWin(r *http.Request, sess game.Session, attempts int) {
	if sess.Date == "" {
		return
	}
	e := leaderboard.Entry{
		Date:     sess.Date,
		Attempts: attempts,
		Player:   leaderboard.PlayerKey(s.cfg.SessionSecret, sess.ID),
	}
	if err := s.board.Append(r.Context(), e); err != nil {
		log.Warn().Err(err).Str("date", e.Date).Int("attempts", attempts).Msg("leaderboard append failed")
		return
	}
	log.Info().Str("date", e.Date).Int("attempts", attempts).Msg("win recorded")
}

type hintRes struct {
	Hint string `json:"hint"`
}

// handleHint reveals one digit if the session is eligible.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var h game.Hint
	err := s.withSession(w, r, func(gs *game.Session) error {
		h = gs.RequestHint(nil, s.now())
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("request hint")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}

	var msg string
	switch h.Status {
	case game.HintExhausted:
		msg = "No more hints allowed for this game."
	case game.HintLocked:
		msg = fmt.Sprintf("Hints unlock after %d attempts!", s.cfg.Rules.HintUnlockAfter)
	case game.HintFullyRevealed:
		msg = "All digits have been revealed."
	default:
		msg = fmt.Sprintf("Digit %d is %s", h.Position, h.Digit)
	}
	writeJSON(w, http.StatusOK, hintRes{Hint: msg})
}

// handleState returns the caller's board without revealing an unfinished target.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var snap game.Snapshot
	err := s.withSession(w, r, func(gs *game.Session) error {
		snap = gs.Snapshot()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("load state")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type newGameRes struct {
	Date        string `json:"date,omitempty"`
	MaxAttempts int    `json:"maxAttempts"`
}

// handleNewGame replaces the caller's session with a fresh one.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	id, err := s.startSession(w, r, "")
	if err != nil {
		log.Error().Err(err).Msg("new game")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}
	writeJSON(w, http.StatusOK, newGameRes{Date: sess.Date, MaxAttempts: sess.Rules.MaxAttempts})
}

// handleGameForDate resets the caller's session to the puzzle for {date}
// and sends them back to the game page.
func (s *Server) handleGameForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := daily.ParseDate(date); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid date format. Use YYYY-MM-DD."))
		return
	}
	if _, err := s.startSession(w, r, date); err != nil {
		log.Error().Err(err).Str("date", date).Msg("start dated game")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "server_error"})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
