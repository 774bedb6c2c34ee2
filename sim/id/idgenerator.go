// Package id generates identifiers for simulation objects.
package id

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() uint64
}

// NewGenerator returns a sequential generator whose first emitted ID is 1.
// Sequential IDs keep traces deterministic.
func NewGenerator() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() uint64 {
	return atomic.AddUint64(&g.nextID, 1)
}

// Unique returns a globally unique string ID. The result is not deterministic
// and must not end up in simulation traces; it is meant for naming artifacts
// such as database files.
func Unique() string {
	return xid.New().String()
}
