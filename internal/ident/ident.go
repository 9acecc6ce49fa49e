// Package ident issues locally unique integer ids. The remote sandbox echoes
// the same placeholder id for every create, so identity is arbitrated here:
// millisecond timestamps with a monotonic guard against same-tick collisions.
package ident

import (
	"sync"
	"time"
)

type Generator struct {
	mu   sync.Mutex
	last int64
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the current millisecond timestamp, bumped past the previously
// issued id when the clock has not advanced.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	return now
}
