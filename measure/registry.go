/*
registry.go - Authoritative store of unit definitions

PURPOSE:
  The Registry is the single source of truth for unit lookups. All writes
  to unit state go through it; reads never mutate. It owns the engine's
  data-model invariants:

    I1: at most one active base unit per unit type
    I2: a baseUnitRef, when set, points to a unit of the same type
    I3: conversion factors reference units of the same type as the owner
    I4: factors are non-zero (a zero factor is not invertible)
    I5: a used unit is never deleted, only deactivated

CONCURRENCY:
  All state lives behind a single sync.RWMutex. Registrations take the
  write lock for the whole check-then-insert sequence, so two concurrent
  registrations can never both believe no base unit exists yet. Usage
  counter bumps also take the write lock - lost updates to a metric would
  be tolerable, torn values would not, and the critical section is tiny.

OWNERSHIP:
  The Registry is an explicitly owned value passed to its consumers via
  dependency injection, never a package-level singleton. Tests construct
  an isolated registry per test case.

SEE ALSO:
  - resolver.go: Reads units and bumps usage through the registry
  - validator.go: Definition checks shared with the factory
  - store/sqlite: Persists registry contents across restarts
*/
package measure

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REGISTRY
// =============================================================================

type symbolKey struct {
	Type   UnitType
	Symbol string
}

// Registry holds the set of defined measurement units.
type Registry struct {
	mu       sync.RWMutex
	units    map[UnitID]*MeasurementUnit
	bySymbol map[symbolKey]UnitID
	baseFor  map[UnitType]UnitID // active base unit per type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		units:    make(map[UnitID]*MeasurementUnit),
		bySymbol: make(map[symbolKey]UnitID),
		baseFor:  make(map[UnitType]UnitID),
	}
}

func symKey(t UnitType, symbol string) symbolKey {
	return symbolKey{Type: t, Symbol: strings.ToLower(strings.TrimSpace(symbol))}
}

// =============================================================================
// WRITES
// =============================================================================

// Register inserts a new unit. The unit is cloned on the way in; the
// caller's copy stays detached from registry state.
func (r *Registry) Register(unit *MeasurementUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[unit.ID]; exists {
		return &DuplicateUnitError{ID: unit.ID}
	}
	if id, exists := r.bySymbol[symKey(unit.UnitType, unit.Symbol)]; exists {
		return &DuplicateUnitError{ID: id, UnitType: unit.UnitType, Symbol: unit.Symbol}
	}
	if err := ValidateDefinition(unit, r.lookupLocked); err != nil {
		return err
	}
	if unit.IsBaseUnit && unit.IsActive {
		if existing, ok := r.baseFor[unit.UnitType]; ok {
			return &InvalidBaseUnitError{ID: unit.ID, UnitType: unit.UnitType, Existing: existing}
		}
	}

	u := unit.Clone()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.insertLocked(u)
	return nil
}

func (r *Registry) insertLocked(u *MeasurementUnit) {
	r.units[u.ID] = u
	r.bySymbol[symKey(u.UnitType, u.Symbol)] = u.ID
	if u.IsBaseUnit && u.IsActive {
		r.baseFor[u.UnitType] = u.ID
	}
}

// UnitUpdate carries the mutable fields of a unit. Nil pointers leave
// the current value untouched.
type UnitUpdate struct {
	Name              *string
	Symbol            *string
	DisplayName       *string
	Description       *string
	UnitType          *UnitType // rejected once the unit is referenced
	ConversionFactors []ConversionFactor
	DecimalPlaces     *int32
	Precision         *string // decimal string
	MinValue          *string // decimal string; empty string clears the bound
	MaxValue          *string // decimal string; empty string clears the bound
	AllowNegative     *bool
	DisplayFormat     *DisplayFormat
	IsActive          *bool
}

// Update applies a partial update to an existing unit.
//
// Changing UnitType is refused with ErrUnitTypeLocked once the unit
// carries conversion factors, is referenced by another unit's factors or
// baseUnitRef, or has been used by a conversion.
func (r *Registry) Update(id UnitID, upd UnitUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return &UnitNotFoundError{ID: id}
	}

	next := u.Clone()

	if upd.UnitType != nil && *upd.UnitType != u.UnitType {
		if r.typeLockedLocked(u) {
			return ErrUnitTypeLocked
		}
		if !upd.UnitType.Valid() {
			return &InvalidConversionFactorError{UnitID: id, Reason: "unknown unit type " + string(*upd.UnitType)}
		}
		next.UnitType = *upd.UnitType
	}
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Symbol != nil {
		next.Symbol = *upd.Symbol
	}
	if upd.DisplayName != nil {
		next.DisplayName = *upd.DisplayName
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.ConversionFactors != nil {
		next.ConversionFactors = upd.ConversionFactors
	}
	if upd.DecimalPlaces != nil {
		next.DecimalPlaces = *upd.DecimalPlaces
	}
	if upd.Precision != nil {
		p, err := decimal.NewFromString(*upd.Precision)
		if err != nil {
			return &InvalidConversionFactorError{UnitID: id, Reason: "precision is not a valid decimal: " + *upd.Precision}
		}
		next.Precision = p
	}
	if upd.MinValue != nil {
		if *upd.MinValue == "" {
			next.MinValue = nil
		} else {
			v, err := decimal.NewFromString(*upd.MinValue)
			if err != nil {
				return &InvalidConversionFactorError{UnitID: id, Reason: "min_value is not a valid decimal: " + *upd.MinValue}
			}
			next.MinValue = &v
		}
	}
	if upd.MaxValue != nil {
		if *upd.MaxValue == "" {
			next.MaxValue = nil
		} else {
			v, err := decimal.NewFromString(*upd.MaxValue)
			if err != nil {
				return &InvalidConversionFactorError{UnitID: id, Reason: "max_value is not a valid decimal: " + *upd.MaxValue}
			}
			next.MaxValue = &v
		}
	}
	if upd.AllowNegative != nil {
		next.AllowNegative = *upd.AllowNegative
	}
	if upd.DisplayFormat != nil {
		next.DisplayFormat = *upd.DisplayFormat
	}
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}

	// Symbol moves must not collide with another unit of the type.
	newKey := symKey(next.UnitType, next.Symbol)
	if owner, exists := r.bySymbol[newKey]; exists && owner != id {
		return &DuplicateUnitError{ID: owner, UnitType: next.UnitType, Symbol: next.Symbol}
	}

	if err := ValidateDefinition(next, r.lookupLocked); err != nil {
		return err
	}

	// Reactivating (or keeping active) a base unit re-checks I1.
	if next.IsBaseUnit && next.IsActive {
		if existing, ok := r.baseFor[next.UnitType]; ok && existing != id {
			return &InvalidBaseUnitError{ID: id, UnitType: next.UnitType, Existing: existing}
		}
	}

	delete(r.bySymbol, symKey(u.UnitType, u.Symbol))
	if u.IsBaseUnit && r.baseFor[u.UnitType] == id {
		delete(r.baseFor, u.UnitType)
	}
	r.insertLocked(next)
	return nil
}

// typeLockedLocked reports whether the unit's type is referenced anywhere.
func (r *Registry) typeLockedLocked(u *MeasurementUnit) bool {
	if len(u.ConversionFactors) > 0 || u.UsageCount > 0 {
		return true
	}
	for _, other := range r.units {
		if other.ID == u.ID {
			continue
		}
		if other.BaseUnitRef == u.ID {
			return true
		}
		if _, ok := other.FactorTo(u.ID); ok {
			return true
		}
	}
	return false
}

// Deactivate sets isActive=false. The unit stays registered so that
// historical conversion records keep resolving (soft lifecycle).
func (r *Registry) Deactivate(id UnitID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return &UnitNotFoundError{ID: id}
	}
	u.IsActive = false
	if u.IsBaseUnit && r.baseFor[u.UnitType] == id {
		delete(r.baseFor, u.UnitType)
	}
	return nil
}

// Delete removes a unit entirely. Refused for system units and for any
// unit with recorded usage - those are deactivated instead.
func (r *Registry) Delete(id UnitID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return &UnitNotFoundError{ID: id}
	}
	if u.IsSystemUnit {
		return ErrSystemUnit
	}
	if u.UsageCount > 0 {
		return ErrUnitInUse
	}

	delete(r.units, id)
	delete(r.bySymbol, symKey(u.UnitType, u.Symbol))
	if u.IsBaseUnit && r.baseFor[u.UnitType] == id {
		delete(r.baseFor, u.UnitType)
	}
	return nil
}

// recordUsage bumps usage counters on the given units. Called by the
// resolver after a successful conversion. Identity conversions pass the
// same id twice and are bumped once.
func (r *Registry) recordUsage(now time.Time, ids ...UnitID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[UnitID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.units[id]; ok {
			u.UsageCount++
			t := now
			u.LastUsed = &t
		}
	}
}

// =============================================================================
// READS - Pure lookups, clones out
// =============================================================================

// FindByID returns the unit with the given id, active or not.
// Returns nil if the unit does not exist.
func (r *Registry) FindByID(id UnitID) *MeasurementUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.units[id]; ok {
		return u.Clone()
	}
	return nil
}

// FindBySymbol returns the unit registered under (unitType, symbol).
func (r *Registry) FindBySymbol(t UnitType, symbol string) *MeasurementUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.bySymbol[symKey(t, symbol)]; ok {
		return r.units[id].Clone()
	}
	return nil
}

// FindBaseUnit returns the active base unit for the given type, or nil
// if none has been defined yet. Absence is not an error here; the
// resolver decides whether a missing base unit is fatal.
func (r *Registry) FindBaseUnit(t UnitType) *MeasurementUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.baseFor[t]; ok {
		return r.units[id].Clone()
	}
	return nil
}

// ListActive returns active units, optionally filtered by type, ordered
// by id for stable output.
func (r *Registry) ListActive(t *UnitType) []*MeasurementUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*MeasurementUnit
	for _, u := range r.units {
		if !u.IsActive {
			continue
		}
		if t != nil && u.UnitType != *t {
			continue
		}
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListAll returns every registered unit, active or not, ordered by id.
func (r *Registry) ListAll() []*MeasurementUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*MeasurementUnit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// lookupLocked resolves an id without taking the lock (already held).
func (r *Registry) lookupLocked(id UnitID) *MeasurementUnit {
	return r.units[id]
}

// =============================================================================
// RESTORE - Bulk load from persistence
// =============================================================================

// Restore inserts previously persisted units in one shot. Definitions
// were validated when first registered, so only the index-level
// invariants (unique ids, unique symbols, single active base) are
// re-checked; reference validation is skipped because factors may point
// at units that appear later in the slice.
func (r *Registry) Restore(units []*MeasurementUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, unit := range units {
		if _, exists := r.units[unit.ID]; exists {
			return &DuplicateUnitError{ID: unit.ID}
		}
		if id, exists := r.bySymbol[symKey(unit.UnitType, unit.Symbol)]; exists {
			return &DuplicateUnitError{ID: id, UnitType: unit.UnitType, Symbol: unit.Symbol}
		}
		if unit.IsBaseUnit && unit.IsActive {
			if existing, ok := r.baseFor[unit.UnitType]; ok {
				return &InvalidBaseUnitError{ID: unit.ID, UnitType: unit.UnitType, Existing: existing}
			}
		}
		r.insertLocked(unit.Clone())
	}
	return nil
}
