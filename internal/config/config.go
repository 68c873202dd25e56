// internal/config/config.go
//
// Runtime configuration for the Numble server.
//
// Values come from the environment (a `.env` file is loaded by main via
// godotenv before Load runs). Game rules and rate limits may additionally be
// overridden by a YAML file named in NUMBLE_RULES_FILE:
//
//	max_attempts: 10
//	max_hints: 1
//	hint_unlock_after: 3
//	rate_limits:
//	  guess_per_minute: 10
//	  hint_per_minute: 3
//	  default_per_minute: 10

package config

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/numble/internal/game"
)

// Mode selects how new sessions pick their target.
type Mode string

const (
	ModeDaily  Mode = "daily"
	ModeRandom Mode = "random"
)

// RateLimits are requests per minute per client.
type RateLimits struct {
	GuessPerMinute   int `yaml:"guess_per_minute"`
	HintPerMinute    int `yaml:"hint_per_minute"`
	DefaultPerMinute int `yaml:"default_per_minute"`
}

// Config is the fully resolved server configuration.
type Config struct {
	Port          string
	LogLevel      string
	LogPretty     bool
	Mode          Mode
	Location      *time.Location
	DatabaseURL   string // empty → in-memory stores
	SessionSecret []byte
	SessionTTL    time.Duration
	ClientOrigin  string
	Rules         game.Rules
	RateLimits    RateLimits

	// SecretGenerated is set when SESSION_SECRET was empty and a random one
	// was made up; session cookies then do not survive a restart.
	SecretGenerated bool
}

// rulesFile mirrors the YAML layout of NUMBLE_RULES_FILE.
type rulesFile struct {
	game.Rules `yaml:",inline"`
	RateLimits RateLimits `yaml:"rate_limits"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:         "5175",
		LogLevel:     "info",
		Mode:         ModeDaily,
		Location:     time.UTC,
		SessionTTL:   24 * time.Hour,
		ClientOrigin: "*",
		Rules:        game.DefaultRules(),
		RateLimits: RateLimits{
			GuessPerMinute:   10,
			HintPerMinute:    3,
			DefaultPerMinute: 10,
		},
	}
}

// Load resolves the configuration from the environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	c := Defaults()
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	c.Port = get("PORT", c.Port)
	c.LogLevel = get("LOG_LEVEL", c.LogLevel)
	c.LogPretty, _ = strconv.ParseBool(get("LOG_PRETTY", "false"))
	c.DatabaseURL = get("DATABASE_URL", "")
	c.ClientOrigin = get("CLIENT_ORIGIN", c.ClientOrigin)

	switch m := Mode(strings.ToLower(get("NUMBLE_MODE", string(ModeDaily)))); m {
	case ModeDaily, ModeRandom:
		c.Mode = m
	default:
		return c, fmt.Errorf("config: NUMBLE_MODE must be %q or %q, got %q", ModeDaily, ModeRandom, m)
	}

	loc, err := time.LoadLocation(get("NUMBLE_TZ", "UTC"))
	if err != nil {
		return c, fmt.Errorf("config: NUMBLE_TZ: %w", err)
	}
	c.Location = loc

	if v := get("SESSION_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("config: SESSION_TTL: %w", err)
		}
		if d <= 0 {
			return c, errors.New("config: SESSION_TTL must be positive")
		}
		c.SessionTTL = d
	}

	if s := get("SESSION_SECRET", ""); s != "" {
		c.SessionSecret = []byte(s)
	} else {
		c.SecretGenerated = true
		c.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(c.SessionSecret); err != nil {
			return c, fmt.Errorf("config: generate session secret: %w", err)
		}
	}

	if path := get("NUMBLE_RULES_FILE", ""); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: read rules file: %w", err)
		}
		if err := c.applyRules(b); err != nil {
			return c, err
		}
	}
	return c, nil
}

// applyRules overlays a YAML rules document; absent keys keep their value.
func (c *Config) applyRules(b []byte) error {
	rf := rulesFile{Rules: c.Rules, RateLimits: c.RateLimits}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse rules file: %w", err)
	}
	if err := rf.Rules.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	rl := rf.RateLimits
	if rl.GuessPerMinute < 1 || rl.HintPerMinute < 1 || rl.DefaultPerMinute < 1 {
		return errors.New("config: rate limits must be at least 1 per minute")
	}
	c.Rules = rf.Rules
	c.RateLimits = rl
	return nil
}
