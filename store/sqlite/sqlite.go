/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists unit definitions and the conversion log using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  measure.ConversionLog: Append-only conversion records

KEY TABLES:
  units:       One record per MeasurementUnit, keyed by id
  conversions: Immutable log of all conversion results

APPEND-ONLY ENFORCEMENT:
  The conversions table has no UPDATE or DELETE statements anywhere in
  this package. A wrong conversion is converted again; both rows remain.

INDEXES:
  idx_units_type_base:    base-unit lookup per type
  idx_units_type_symbol:  duplicate detection on (unit_type, symbol)
  idx_conversions_units:  per-unit history queries
  idx_conversions_at:     newest-first listing

NUMERIC COLUMNS:
  All decimal values (factors, offsets, bounds, converted values) are
  stored as TEXT and parsed with shopspring/decimal. SQLite REAL would
  silently degrade 0.001 to the nearest float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety plus WAL mode for better reader
  concurrency and crash recovery.

USAGE:
  store, err := sqlite.New("./data/measure.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  registry, err := store.LoadRegistry(ctx)
  resolver := measure.NewResolver(registry, store)

SEE ALSO:
  - measure/log.go: ConversionLog interface
  - measure/registry.go: In-memory authoritative store loaded from here
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/measure-engine/measure"
)

// Store persists units and conversion records in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Unit definitions
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		display_name TEXT,
		description TEXT,
		unit_type TEXT NOT NULL,
		unit_system TEXT NOT NULL,
		is_base_unit INTEGER NOT NULL DEFAULT 0,
		base_unit_ref TEXT,
		conversion_factors TEXT NOT NULL DEFAULT '[]',
		decimal_places INTEGER NOT NULL DEFAULT 2,
		precision TEXT NOT NULL,
		min_value TEXT,
		max_value TEXT,
		allow_negative INTEGER NOT NULL DEFAULT 0,
		show_symbol INTEGER NOT NULL DEFAULT 1,
		symbol_position TEXT NOT NULL DEFAULT 'after',
		thousands_separator TEXT NOT NULL DEFAULT '',
		decimal_separator TEXT NOT NULL DEFAULT '.',
		is_active INTEGER NOT NULL DEFAULT 1,
		is_system_unit INTEGER NOT NULL DEFAULT 0,
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_units_type_base
		ON units(unit_type, is_base_unit) WHERE is_active = 1;
	CREATE INDEX IF NOT EXISTS idx_units_type_symbol
		ON units(unit_type, symbol);

	-- Conversion log (append-only)
	CREATE TABLE IF NOT EXISTS conversions (
		id TEXT PRIMARY KEY,
		from_unit TEXT NOT NULL,
		to_unit TEXT NOT NULL,
		original_value TEXT NOT NULL,
		converted_value TEXT NOT NULL,
		factor TEXT NOT NULL,
		offset_value TEXT NOT NULL,
		path TEXT NOT NULL,
		precision_used INTEGER NOT NULL,
		converted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_units
		ON conversions(from_unit, to_unit);
	CREATE INDEX IF NOT EXISTS idx_conversions_at
		ON conversions(converted_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UNITS
// =============================================================================

// factorRow is the JSON shape of one conversion factor in the
// conversion_factors column. Decimals marshal as strings, so 0.001
// survives the round trip exactly.
type factorRow struct {
	TargetUnit string          `json:"target_unit"`
	Factor     decimal.Decimal `json:"factor"`
	Offset     decimal.Decimal `json:"offset"`
}

// SaveUnit inserts or replaces a unit record.
func (s *Store) SaveUnit(ctx context.Context, u *measure.MeasurementUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	factors := make([]factorRow, len(u.ConversionFactors))
	for i, cf := range u.ConversionFactors {
		factors[i] = factorRow{TargetUnit: string(cf.TargetUnit), Factor: cf.Factor, Offset: cf.Offset}
	}
	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		return fmt.Errorf("failed to marshal conversion factors: %w", err)
	}

	var minVal, maxVal, lastUsed sql.NullString
	if u.MinValue != nil {
		minVal = sql.NullString{String: u.MinValue.String(), Valid: true}
	}
	if u.MaxValue != nil {
		maxVal = sql.NullString{String: u.MaxValue.String(), Valid: true}
	}
	if u.LastUsed != nil {
		lastUsed = sql.NullString{String: u.LastUsed.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO units (
			id, name, symbol, display_name, description,
			unit_type, unit_system, is_base_unit, base_unit_ref,
			conversion_factors, decimal_places, precision,
			min_value, max_value, allow_negative,
			show_symbol, symbol_position, thousands_separator, decimal_separator,
			is_active, is_system_unit, usage_count, last_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(u.ID), u.Name, u.Symbol, u.DisplayName, u.Description,
		string(u.UnitType), string(u.UnitSystem), u.IsBaseUnit, string(u.BaseUnitRef),
		string(factorsJSON), u.DecimalPlaces, u.Precision.String(),
		minVal, maxVal, u.AllowNegative,
		u.DisplayFormat.ShowSymbol, string(u.DisplayFormat.SymbolPosition),
		u.DisplayFormat.ThousandsSeparator, u.DisplayFormat.DecimalSeparator,
		u.IsActive, u.IsSystemUnit, u.UsageCount, lastUsed,
		u.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save unit %s: %w", u.ID, err)
	}
	return nil
}

// GetUnit returns a unit by id, or nil if not found.
func (s *Store) GetUnit(ctx context.Context, id measure.UnitID) (*measure.MeasurementUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, unitSelect+` WHERE id = ?`, string(id))
	u, err := scanUnit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUnits returns every persisted unit.
func (s *Store) ListUnits(ctx context.Context) ([]*measure.MeasurementUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, unitSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*measure.MeasurementUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// DeleteUnit removes a unit record. The registry decides whether a
// delete is permitted; the store just executes it.
func (s *Store) DeleteUnit(ctx context.Context, id measure.UnitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete unit %s: %w", id, err)
	}
	return nil
}

// LoadRegistry builds a registry from all persisted units.
func (s *Store) LoadRegistry(ctx context.Context) (*measure.Registry, error) {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	reg := measure.NewRegistry()
	if err := reg.Restore(units); err != nil {
		return nil, fmt.Errorf("failed to restore registry: %w", err)
	}
	return reg, nil
}

const unitSelect = `
	SELECT id, name, symbol, display_name, description,
	       unit_type, unit_system, is_base_unit, base_unit_ref,
	       conversion_factors, decimal_places, precision,
	       min_value, max_value, allow_negative,
	       show_symbol, symbol_position, thousands_separator, decimal_separator,
	       is_active, is_system_unit, usage_count, last_used, created_at
	FROM units`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*measure.MeasurementUnit, error) {
	var (
		u                         measure.MeasurementUnit
		id, unitType, unitSystem  string
		baseRef, symbolPos        string
		factorsJSON, precisionStr string
		minVal, maxVal, lastUsed  sql.NullString
		createdAt                 string
	)
	err := row.Scan(
		&id, &u.Name, &u.Symbol, &u.DisplayName, &u.Description,
		&unitType, &unitSystem, &u.IsBaseUnit, &baseRef,
		&factorsJSON, &u.DecimalPlaces, &precisionStr,
		&minVal, &maxVal, &u.AllowNegative,
		&u.DisplayFormat.ShowSymbol, &symbolPos,
		&u.DisplayFormat.ThousandsSeparator, &u.DisplayFormat.DecimalSeparator,
		&u.IsActive, &u.IsSystemUnit, &u.UsageCount, &lastUsed, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	u.ID = measure.UnitID(id)
	u.UnitType = measure.UnitType(unitType)
	u.UnitSystem = measure.UnitSystem(unitSystem)
	u.BaseUnitRef = measure.UnitID(baseRef)
	u.DisplayFormat.SymbolPosition = measure.SymbolPosition(symbolPos)

	var factors []factorRow
	if err := json.Unmarshal([]byte(factorsJSON), &factors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal factors for unit %s: %w", id, err)
	}
	for _, fr := range factors {
		u.ConversionFactors = append(u.ConversionFactors, measure.ConversionFactor{
			TargetUnit: measure.UnitID(fr.TargetUnit),
			Factor:     fr.Factor,
			Offset:     fr.Offset,
		})
	}

	if u.Precision, err = decimal.NewFromString(precisionStr); err != nil {
		return nil, fmt.Errorf("bad precision for unit %s: %w", id, err)
	}
	if minVal.Valid {
		v, err := decimal.NewFromString(minVal.String)
		if err != nil {
			return nil, fmt.Errorf("bad min_value for unit %s: %w", id, err)
		}
		u.MinValue = &v
	}
	if maxVal.Valid {
		v, err := decimal.NewFromString(maxVal.String)
		if err != nil {
			return nil, fmt.Errorf("bad max_value for unit %s: %w", id, err)
		}
		u.MaxValue = &v
	}
	if lastUsed.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("bad last_used for unit %s: %w", id, err)
		}
		u.LastUsed = &t
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at for unit %s: %w", id, err)
	}
	return &u, nil
}

// =============================================================================
// CONVERSION LOG - measure.ConversionLog implementation
// =============================================================================

// Append records a conversion result. Append-only: this package contains
// no UPDATE or DELETE against the conversions table.
func (s *Store) Append(ctx context.Context, r measure.ConversionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversions (
			id, from_unit, to_unit, original_value, converted_value,
			factor, offset_value, path, precision_used, converted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.FromUnit), string(r.ToUnit),
		r.OriginalValue.String(), r.ConvertedValue.String(),
		r.Factor.String(), r.Offset.String(),
		string(r.Path), r.PrecisionUsed,
		r.ConvertedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append conversion %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit conversions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]measure.ConversionResult, error) {
	return s.queryConversions(ctx,
		conversionSelect+` ORDER BY converted_at DESC LIMIT ?`, limit)
}

// ByUnit returns up to limit conversions touching the unit, newest first.
func (s *Store) ByUnit(ctx context.Context, id measure.UnitID, limit int) ([]measure.ConversionResult, error) {
	return s.queryConversions(ctx,
		conversionSelect+` WHERE from_unit = ? OR to_unit = ? ORDER BY converted_at DESC LIMIT ?`,
		string(id), string(id), limit)
}

const conversionSelect = `
	SELECT id, from_unit, to_unit, original_value, converted_value,
	       factor, offset_value, path, precision_used, converted_at
	FROM conversions`

func (s *Store) queryConversions(ctx context.Context, query string, args ...any) ([]measure.ConversionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var results []measure.ConversionResult
	for rows.Next() {
		var (
			r                       measure.ConversionResult
			fromUnit, toUnit, path  string
			orig, conv, factor, off string
			convertedAt             string
		)
		if err := rows.Scan(&r.ID, &fromUnit, &toUnit, &orig, &conv,
			&factor, &off, &path, &r.PrecisionUsed, &convertedAt); err != nil {
			return nil, err
		}
		r.FromUnit = measure.UnitID(fromUnit)
		r.ToUnit = measure.UnitID(toUnit)
		r.Path = measure.ConversionPath(path)
		if r.OriginalValue, err = decimal.NewFromString(orig); err != nil {
			return nil, fmt.Errorf("bad original_value in conversion %s: %w", r.ID, err)
		}
		if r.ConvertedValue, err = decimal.NewFromString(conv); err != nil {
			return nil, fmt.Errorf("bad converted_value in conversion %s: %w", r.ID, err)
		}
		if r.Factor, err = decimal.NewFromString(factor); err != nil {
			return nil, fmt.Errorf("bad factor in conversion %s: %w", r.ID, err)
		}
		if r.Offset, err = decimal.NewFromString(off); err != nil {
			return nil, fmt.Errorf("bad offset in conversion %s: %w", r.ID, err)
		}
		if r.ConvertedAt, err = time.Parse(time.RFC3339Nano, convertedAt); err != nil {
			return nil, fmt.Errorf("bad converted_at in conversion %s: %w", r.ID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
