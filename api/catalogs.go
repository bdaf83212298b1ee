/*
catalogs.go - Preset unit set loaders

PURPOSE:

	Provides pre-built unit sets that populate the registry with
	realistic data for testing and demos. Each catalog registers a
	coherent family of units (a base unit plus derived units, or a set
	converting toward an already-loaded base).

AVAILABLE CATALOGS:

	metric-weight, imperial-weight, metric-volume, culinary-volume,
	metric-length, imperial-length, temperature, time, quantity

ORDERING:

	imperial-weight, imperial-length and culinary-volume reference the
	metric base units; load the metric set of the same dimension first.
	Loading is idempotent per unit: units that already exist are skipped,
	so re-loading a catalog is harmless.

USAGE VIA API:

	POST /api/catalogs/load
	{"catalog_id": "metric-weight"}

SEE ALSO:
  - catalog: The definitions themselves
  - handlers.go: writeJSON/writeError helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/measure-engine/catalog"
)

// ListCatalogs returns the available preset unit sets.
func (h *Handler) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	all := catalog.All()
	dtos := make([]CatalogDTO, len(all))
	for i, c := range all {
		dtos[i] = CatalogDTO{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			UnitCount:   len(c.Units),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadCatalog registers every unit of a preset set. Units that already
// exist are skipped; anything else failing aborts the load.
func (h *Handler) LoadCatalog(w http.ResponseWriter, r *http.Request) {
	var req LoadCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, ok := catalog.ByID(req.CatalogID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown catalog", nil)
		return
	}

	registered, skipped := 0, 0
	for _, def := range c.Units {
		unit, err := h.Factory.BuildUnit(def)
		if err != nil {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Catalog definition %q is invalid", def.ID), err)
			return
		}
		if h.Registry.FindByID(unit.ID) != nil {
			skipped++
			continue
		}
		if err := h.Registry.Register(unit); err != nil {
			writeEngineError(w, err)
			return
		}
		if err := h.persist(r, unit.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist unit", err)
			return
		}
		registered++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"catalog_id": c.ID,
		"registered": registered,
		"skipped":    skipped,
	})
}

// PreloadCatalog registers a preset set outside an HTTP request, used
// at server startup for -preload.
func (h *Handler) PreloadCatalog(ctx context.Context, id string) error {
	c, ok := catalog.ByID(id)
	if !ok {
		return fmt.Errorf("unknown catalog %q", id)
	}
	for _, def := range c.Units {
		unit, err := h.Factory.BuildUnit(def)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", id, err)
		}
		if h.Registry.FindByID(unit.ID) != nil {
			continue
		}
		if err := h.Registry.Register(unit); err != nil {
			return fmt.Errorf("catalog %s: register %s: %w", id, unit.ID, err)
		}
		if h.Store != nil {
			if err := h.Store.SaveUnit(ctx, h.Registry.FindByID(unit.ID)); err != nil {
				return fmt.Errorf("catalog %s: persist %s: %w", id, unit.ID, err)
			}
		}
	}
	return nil
}
