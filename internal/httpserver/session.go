// internal/httpserver/session.go
//
// Anonymous session handling.
//
// The cookie carries only an HS256 JWT whose subject is the session ID; the
// game state lives in the session store. A missing, expired, tampered or
// unknown cookie starts a fresh session in the configured mode.

package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/internal/config"
	"github.com/robalobadob/numble/internal/daily"
	"github.com/robalobadob/numble/internal/game"
	"github.com/robalobadob/numble/internal/store"
)

const sessionCookieName = "numble_session"

// signSession creates a signed token for a session ID.
func (s *Server) signSession(id string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(s.cfg.SessionSecret)
	return ss, exp, err
}

// parseSession returns the session ID from a token, or an error if it is not
// a valid, unexpired token signed with our secret.
func (s *Server) parseSession(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.SessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !t.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

// setSessionCookie writes the session cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// sessionID returns the session ID named by the request cookie, if valid.
func (s *Server) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := s.parseSession(c.Value)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring session cookie")
		return "", false
	}
	return id, true
}

// ensureSession returns the caller's live session ID, creating a session
// (and cookie) when there is none.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := s.sessionID(r); ok {
		if _, err := s.sessions.Get(r.Context(), id); err == nil {
			// slide the cookie expiry along with activity
			if tok, exp, err := s.signSession(id); err == nil {
				s.setSessionCookie(w, r, tok, exp)
			}
			return id, nil
		}
	}
	return s.startSession(w, r, "")
}

// startSession stores a new session and issues its cookie. An empty date
// follows the configured mode; otherwise that date's puzzle is used.
// An existing valid cookie keeps its ID so the player identity is stable.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, date string) (string, error) {
	id, ok := s.sessionID(r)
	if !ok {
		id = uuid.NewString()
	}
	sess, err := s.newSession(id, date)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	tok, exp, err := s.signSession(id)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	s.setSessionCookie(w, r, tok, exp)
	log.Debug().Str("session", id).Str("date", sess.Date).Msg("session started")
	return id, nil
}

// newSession builds a session for date ("" → configured mode).
func (s *Server) newSession(id, date string) (*game.Session, error) {
	now := s.now()
	switch {
	case date != "":
	case s.cfg.Mode == config.ModeRandom:
		return game.NewSession(id, s.catalog.Random(), "", s.cfg.Rules, now), nil
	default:
		date = s.todayKey()
	}
	d, err := daily.ParseDate(date)
	if err != nil {
		return nil, err
	}
	target, err := daily.Select(d, s.catalog)
	if err != nil {
		return nil, err
	}
	return game.NewSession(id, target, date, s.cfg.Rules, now), nil
}

// todayKey is the current date in the configured zone.
func (s *Server) todayKey() string {
	return daily.DateKey(s.now(), s.cfg.Location)
}

// withSession runs fn against the caller's session, serialized by the store.
// If the session vanished between lookup and update (swept), a new one is
// started and fn runs against it instead.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*game.Session) error) error {
	id, err := s.ensureSession(w, r)
	if err != nil {
		return err
	}
	err = s.sessions.Update(r.Context(), id, fn)
	if errors.Is(err, store.ErrNotFound) {
		if id, err = s.startSession(w, r, ""); err != nil {
			return err
		}
		return s.sessions.Update(r.Context(), id, fn)
	}
	return err
}
