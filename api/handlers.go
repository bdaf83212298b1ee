/*
handlers.go - HTTP API handlers for the conversion engine

PURPOSE:
  Exposes the measurement-unit engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Units:
    GET    /api/units            List units (?type=weight, ?all=true)
    POST   /api/units            Register unit
    GET    /api/units/{id}       Get unit details
    PATCH  /api/units/{id}       Update mutable fields
    DELETE /api/units/{id}       Deactivate (hard-delete only if unused)
    GET    /api/units/base/{type} Get the base unit for a type

  Conversion:
    POST   /api/convert          Convert a value between two units
    GET    /api/conversions      Recent conversion log (?unit=kg&limit=50)

  Catalogs:
    GET    /api/catalogs         List preset unit sets
    POST   /api/catalogs/load    Register a preset set

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Registry: in-memory authoritative unit store
  - Resolver: conversion algorithm (writes to the conversion log)
  - Store:    sqlite persistence, kept in step with the registry
  - Factory:  JSON definition parsing

ERROR HANDLING:
  Engine errors map to HTTP status via their sentinel:
  - 400: invalid input, bad factors, incompatible types
  - 404: unknown or inactive unit
  - 409: duplicate unit, base-unit conflict, delete refusals
  - 422: value out of range
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - catalogs.go: Preset set loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/measure-engine/factory"
	"github.com/warp/measure-engine/measure"
	"github.com/warp/measure-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *measure.Registry
	Resolver *measure.Resolver
	Store    *sqlite.Store
	Factory  *factory.UnitFactory
}

// NewHandler creates a new handler over the given registry and store.
// store may be nil (tests run against a bare registry); persistence is
// then skipped.
func NewHandler(reg *measure.Registry, resolver *measure.Resolver, store *sqlite.Store) *Handler {
	return &Handler{
		Registry: reg,
		Resolver: resolver,
		Store:    store,
		Factory:  factory.NewUnitFactory(),
	}
}

// persist writes the registry's current view of a unit through to the
// store, if one is wired.
func (h *Handler) persist(r *http.Request, id measure.UnitID) error {
	if h.Store == nil {
		return nil
	}
	u := h.Registry.FindByID(id)
	if u == nil {
		return h.Store.DeleteUnit(r.Context(), id)
	}
	return h.Store.SaveUnit(r.Context(), u)
}

// =============================================================================
// UNIT HANDLERS
// =============================================================================

// ListUnits returns active units, or all units with ?all=true,
// optionally filtered by ?type=.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	var units []*measure.MeasurementUnit
	if r.URL.Query().Get("all") == "true" {
		units = h.Registry.ListAll()
	} else {
		var filter *measure.UnitType
		if t := r.URL.Query().Get("type"); t != "" {
			ut := measure.UnitType(t)
			if !ut.Valid() {
				writeError(w, http.StatusBadRequest, "Unknown unit type", nil)
				return
			}
			filter = &ut
		}
		units = h.Registry.ListActive(filter)
	}

	dtos := make([]UnitDTO, len(units))
	for i, u := range units {
		dtos[i] = toUnitDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUnit returns a single unit.
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	id := measure.UnitID(chi.URLParam(r, "id"))

	u := h.Registry.FindByID(id)
	if u == nil {
		writeError(w, http.StatusNotFound, "Unit not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUnitDTO(u))
}

// GetBaseUnit returns the active base unit for a type.
func (h *Handler) GetBaseUnit(w http.ResponseWriter, r *http.Request) {
	t := measure.UnitType(chi.URLParam(r, "type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown unit type", nil)
		return
	}

	u := h.Registry.FindBaseUnit(t)
	if u == nil {
		writeError(w, http.StatusNotFound, "No base unit defined for type", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUnitDTO(u))
}

// CreateUnit registers a new unit.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	unit, err := h.Factory.BuildUnit(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit definition", err)
		return
	}

	if err := h.Registry.Register(unit); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.persist(r, unit.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist unit", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUnitDTO(h.Registry.FindByID(unit.ID)))
}

// UpdateUnit applies a partial update to a unit.
func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	id := measure.UnitID(chi.URLParam(r, "id"))

	var req UpdateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := measure.UnitUpdate{
		Name:          req.Name,
		Symbol:        req.Symbol,
		DisplayName:   req.DisplayName,
		Description:   req.Description,
		DecimalPlaces: req.DecimalPlaces,
		Precision:     req.Precision,
		MinValue:      req.MinValue,
		MaxValue:      req.MaxValue,
		AllowNegative: req.AllowNegative,
		IsActive:      req.IsActive,
	}
	if req.UnitType != nil {
		t := measure.UnitType(*req.UnitType)
		upd.UnitType = &t
	}
	if req.ConversionFactors != nil {
		factors := make([]measure.ConversionFactor, 0, len(req.ConversionFactors))
		for _, fj := range req.ConversionFactors {
			factors = append(factors, measure.ConversionFactor{
				TargetUnit: measure.UnitID(fj.TargetUnit),
				Factor:     fj.Factor,
				Offset:     fj.Offset,
			})
		}
		upd.ConversionFactors = factors
	}
	if req.DisplayFormat != nil {
		df, err := factory.BuildDisplayFormat(req.DisplayFormat)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid display format", err)
			return
		}
		upd.DisplayFormat = &df
	}

	if err := h.Registry.Update(id, upd); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.persist(r, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist unit", err)
		return
	}

	writeJSON(w, http.StatusOK, toUnitDTO(h.Registry.FindByID(id)))
}

// DeleteUnit deactivates a unit, hard-deleting only when it has never
// been used and is not a system unit.
func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	id := measure.UnitID(chi.URLParam(r, "id"))

	u := h.Registry.FindByID(id)
	if u == nil {
		writeError(w, http.StatusNotFound, "Unit not found", nil)
		return
	}

	deleted := false
	if !u.IsSystemUnit && u.UsageCount == 0 {
		if err := h.Registry.Delete(id); err != nil {
			writeEngineError(w, err)
			return
		}
		deleted = true
	} else {
		if err := h.Registry.Deactivate(id); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if err := h.persist(r, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist unit", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          string(id),
		"deleted":     deleted,
		"deactivated": !deleted,
	})
}

// =============================================================================
// CONVERSION HANDLERS
// =============================================================================

// Convert converts a value between two units.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FromUnitID == "" || req.ToUnitID == "" {
		writeError(w, http.StatusBadRequest, "from_unit_id and to_unit_id are required", nil)
		return
	}

	result, err := h.Resolver.Convert(r.Context(), measure.ConversionRequest{
		Value:     req.Value,
		FromUnit:  measure.UnitID(req.FromUnitID),
		ToUnit:    measure.UnitID(req.ToUnitID),
		Precision: req.Precision,
		Strict:    req.Strict,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// Usage counters moved; keep the store in step. Best-effort: the
	// counters are a metric, a failed write must not fail the conversion.
	if err := h.persist(r, result.FromUnit); err != nil {
		log.Printf("Warning: failed to persist unit %s: %v", result.FromUnit, err)
	}
	if result.FromUnit != result.ToUnit {
		if err := h.persist(r, result.ToUnit); err != nil {
			log.Printf("Warning: failed to persist unit %s: %v", result.ToUnit, err)
		}
	}

	formatted := ""
	if target := h.Registry.FindByID(result.ToUnit); target != nil {
		formatted = measure.Format(result.ConvertedValue, target)
	}
	writeJSON(w, http.StatusOK, toConversionDTO(result, formatted))
}

// ListConversions returns recent conversion log entries.
func (h *Handler) ListConversions(w http.ResponseWriter, r *http.Request) {
	if h.Resolver.Log == nil {
		writeJSON(w, http.StatusOK, []ConversionResultDTO{})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var (
		results []measure.ConversionResult
		err     error
	)
	if unit := r.URL.Query().Get("unit"); unit != "" {
		results, err = h.Resolver.Log.ByUnit(r.Context(), measure.UnitID(unit), limit)
	} else {
		results, err = h.Resolver.Log.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list conversions", err)
		return
	}

	dtos := make([]ConversionResultDTO, len(results))
	for i := range results {
		dtos[i] = toConversionDTO(&results[i], "")
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

const timeFormat = "2006-01-02T15:04:05Z07:00"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, measure.ErrUnitNotFound):
		writeError(w, http.StatusNotFound, "Unit not found", err)
	case errors.Is(err, measure.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, "Value out of range", err)
	case errors.Is(err, measure.ErrDuplicateUnit),
		errors.Is(err, measure.ErrInvalidBaseUnit),
		errors.Is(err, measure.ErrSystemUnit),
		errors.Is(err, measure.ErrUnitInUse):
		writeError(w, http.StatusConflict, "Conflicting unit state", err)
	case measure.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
