// Package store provides ConversionLog implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/measure-engine/measure"
)

// =============================================================================
// MEMORY LOG - In-memory implementation (for testing/dev)
// =============================================================================

type MemoryLog struct {
	mu      sync.RWMutex
	results []measure.ConversionResult
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append adds a single result. Append-only.
func (m *MemoryLog) Append(_ context.Context, result measure.ConversionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

// Recent returns up to limit results, newest first.
func (m *MemoryLog) Recent(_ context.Context, limit int) ([]measure.ConversionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(limit, func(measure.ConversionResult) bool { return true }), nil
}

// ByUnit returns up to limit results touching the unit, newest first.
func (m *MemoryLog) ByUnit(_ context.Context, id measure.UnitID, limit int) ([]measure.ConversionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(limit, func(r measure.ConversionResult) bool {
		return r.FromUnit == id || r.ToUnit == id
	}), nil
}

// Len returns the number of recorded results.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

func (m *MemoryLog) collect(limit int, match func(measure.ConversionResult) bool) []measure.ConversionResult {
	var out []measure.ConversionResult
	for i := len(m.results) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if match(m.results[i]) {
			out = append(out, m.results[i])
		}
	}
	return out
}
