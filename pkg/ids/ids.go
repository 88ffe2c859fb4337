// Package ids generates session, message, and request identifiers. In
// deterministic mode (scenario.Identity is set) it hands out predictable,
// sequential values so golden-file captures stay stable across runs.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces UUIDs and prefixed request IDs. The zero value uses
// real randomness; NewDeterministic returns a Generator that counts up from a
// fixed seed instead, for scenarios that pin identity for captures.
type Generator struct {
	deterministic bool
	seed          string
	counter       atomic.Uint64
}

// NewRandom returns a Generator backed by crypto-random UUIDs.
func NewRandom() *Generator {
	return &Generator{}
}

// NewDeterministic returns a Generator that yields sequential, reproducible
// values derived from seed (the scenario's configured session_id/prefix).
func NewDeterministic(seed string) *Generator {
	return &Generator{deterministic: true, seed: seed}
}

// UUID returns a fresh message/turn identifier.
func (g *Generator) UUID() string {
	if g.deterministic {
		n := g.counter.Add(1)
		return fmt.Sprintf("%s-uuid-%08d", g.seed, n)
	}
	return uuid.NewString()
}

// SessionID returns a new session identifier in "session_<hex>" form.
func (g *Generator) SessionID() string {
	if g.deterministic {
		return fmt.Sprintf("session_%s", g.seed)
	}
	return fmt.Sprintf("session_%s", randomHex(16))
}

// RequestID returns a new request identifier in "req_<hex>" form, optionally
// using a scenario-configured prefix in place of "req_".
func (g *Generator) RequestID(prefix string) string {
	if prefix == "" {
		prefix = "req_"
	}
	if g.deterministic {
		n := g.counter.Add(1)
		return fmt.Sprintf("%s%08d", prefix, n)
	}
	return prefix + randomHex(12)
}

// ToolUseID returns a new tool_use block identifier.
func (g *Generator) ToolUseID() string {
	if g.deterministic {
		n := g.counter.Add(1)
		return fmt.Sprintf("toolu_%s_%04d", g.seed, n)
	}
	return "toolu_" + randomHex(12)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is catastrophic but must not panic a turn;
		// fall back to a fixed-but-distinguishable value.
		return hex.EncodeToString([]byte(fmt.Sprintf("fallback-%d", n)))
	}
	return hex.EncodeToString(buf)
}
