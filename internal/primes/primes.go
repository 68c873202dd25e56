// internal/primes/primes.go
//
// Prime catalog for the game: every 5-digit prime as a decimal string.
//
// Responsibilities:
//   - Build the ascending list of primes in [10000, 99999] with a sieve.
//   - Memoize one process-wide catalog (sync.Once) shared by all sessions.
//   - Load the catalog through an optional Cache, writing it back on a miss.
//   - Supply lookups used by the game engine (Contains, At, Random).
//
// The catalog is never mutated after construction, so it is read without locks.

package primes

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	// Digits is the length of every catalog entry.
	Digits = 5
	// Min and Max bound the catalog range (inclusive).
	Min = 10000
	Max = 99999
	// Count is the number of primes in [Min, Max].
	Count = 8363
)

// Catalog is an immutable, ascending list of 5-digit primes.
type Catalog struct {
	list []string
	set  map[string]struct{}
}

// New wraps a list of primes. The slice is copied.
func New(list []string) *Catalog {
	c := &Catalog{
		list: append([]string(nil), list...),
		set:  make(map[string]struct{}, len(list)),
	}
	for _, p := range c.list {
		c.set[p] = struct{}{}
	}
	return c
}

// Len returns the number of primes in the catalog.
func (c *Catalog) Len() int { return len(c.list) }

// At returns the i-th prime (ascending order).
func (c *Catalog) At(i int) string { return c.list[i] }

// Contains reports whether s is a catalog entry.
func (c *Catalog) Contains(s string) bool {
	_, ok := c.set[s]
	return ok
}

// All returns a copy of the catalog list.
func (c *Catalog) All() []string { return append([]string(nil), c.list...) }

// Random returns a cryptographically random catalog entry.
// An empty catalog yields "".
func (c *Catalog) Random() string {
	if len(c.list) == 0 {
		return ""
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(c.list))))
	return c.list[n.Int64()]
}

// Build enumerates [Min, Max] and returns every prime as a decimal string,
// ascending.
func Build() []string {
	composite := make([]bool, Max+1)
	for i := 2; i*i <= Max; i++ {
		if composite[i] {
			continue
		}
		for j := i * i; j <= Max; j += i {
			composite[j] = true
		}
	}
	out := make([]string, 0, 8400)
	for n := Min; n <= Max; n++ {
		if !composite[n] {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out
}

// IsPrime reports whether n is prime.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the process-wide catalog, building it on first use.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat = New(Build())
	})
	return defaultCat
}

// Cache is a key-value style collaborator that persists the catalog list.
// Implementations return (nil, nil) when nothing has been stored yet.
type Cache interface {
	LoadCatalog(ctx context.Context) ([]string, error)
	StoreCatalog(ctx context.Context, list []string) error
}

// ErrInvalidCache reports a cached list that does not look like the catalog.
var ErrInvalidCache = errors.New("primes: cached catalog is invalid")

// Load returns the catalog from cache, or builds it (and writes it back)
// when the cache is empty or holds something that fails validation.
// A failed write is logged and otherwise ignored.
func Load(ctx context.Context, cache Cache) (*Catalog, error) {
	if cache == nil {
		return Default(), nil
	}
	list, err := cache.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		verr := validate(list)
		if verr == nil {
			log.Debug().Int("primes", len(list)).Msg("catalog loaded from cache")
			return New(list), nil
		}
		log.Warn().Err(verr).Msg("discarding cached catalog")
	}

	c := Default()
	if err := cache.StoreCatalog(ctx, c.list); err != nil {
		log.Warn().Err(err).Msg("store catalog cache")
	}
	return c, nil
}

// validate checks that list is exactly the catalog: Count entries, each a
// prime in range, strictly ascending. Any such list equals Build().
func validate(list []string) error {
	if len(list) != Count {
		return ErrInvalidCache
	}
	prev := 0
	for _, s := range list {
		if len(s) != Digits {
			return ErrInvalidCache
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < Min || n > Max || n <= prev || !IsPrime(n) {
			return ErrInvalidCache
		}
		prev = n
	}
	return nil
}
