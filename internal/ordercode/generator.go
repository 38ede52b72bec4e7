// Package ordercode issues human-facing order codes.
package ordercode

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "LXB"

// Generator produces unique order codes.
type Generator interface {
	// Next returns a code for an order created at t.
	Next(t time.Time) (string, error)
}

type generator struct {
	prefix  string
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a generator of codes of the form PREFIX-<ULID>.
// Codes sort by creation time, and codes issued within the same
// millisecond still differ through monotonic entropy.
func NewGenerator(prefix string) Generator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &generator{
		prefix:  strings.ToUpper(prefix),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *generator) Next(t time.Time) (string, error) {
	// MonotonicEntropy is not safe for concurrent use.
	g.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	return g.prefix + "-" + id.String(), nil
}
