/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMERIC FIELDS:
  Values, factors and offsets travel as JSON strings ("2.5", "0.001") so
  clients keep exact decimals. decimal.Decimal accepts plain numbers on
  the way in as well.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/unit.go: UnitJSON, the unit definition schema reused as the
    registration payload
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/measure-engine/factory"
	"github.com/warp/measure-engine/measure"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CreateUnitRequest is the request to register a unit. It is exactly the
// factory's JSON definition schema.
type CreateUnitRequest = factory.UnitJSON

// UpdateUnitRequest carries the mutable fields of a unit. Absent fields
// are left untouched.
type UpdateUnitRequest struct {
	Name              *string               `json:"name,omitempty"`
	Symbol            *string               `json:"symbol,omitempty"`
	DisplayName       *string               `json:"display_name,omitempty"`
	Description       *string               `json:"description,omitempty"`
	UnitType          *string               `json:"unit_type,omitempty"`
	ConversionFactors []factory.FactorJSON  `json:"conversion_factors,omitempty"`
	DecimalPlaces     *int32                `json:"decimal_places,omitempty"`
	Precision         *string               `json:"precision,omitempty"`
	MinValue          *string               `json:"min_value,omitempty"`
	MaxValue          *string               `json:"max_value,omitempty"`
	AllowNegative     *bool                 `json:"allow_negative,omitempty"`
	DisplayFormat     *factory.DisplayJSON  `json:"display_format,omitempty"`
	IsActive          *bool                 `json:"is_active,omitempty"`
}

// UnitDTO represents a unit in API responses.
type UnitDTO struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Symbol        string      `json:"symbol"`
	DisplayName   string      `json:"display_name,omitempty"`
	Description   string      `json:"description,omitempty"`
	UnitType      string      `json:"unit_type"`
	UnitSystem    string      `json:"unit_system"`
	IsBaseUnit    bool        `json:"is_base_unit"`
	BaseUnitRef   string      `json:"base_unit_ref,omitempty"`
	Factors       []FactorDTO `json:"conversion_factors,omitempty"`
	DecimalPlaces int32       `json:"decimal_places"`
	Precision     string      `json:"precision"`
	MinValue      *string     `json:"min_value,omitempty"`
	MaxValue      *string     `json:"max_value,omitempty"`
	AllowNegative bool        `json:"allow_negative"`
	IsActive      bool        `json:"is_active"`
	IsSystemUnit  bool        `json:"is_system_unit"`
	UsageCount    int64       `json:"usage_count"`
	LastUsed      string      `json:"last_used,omitempty"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

// FactorDTO represents one conversion factor entry.
type FactorDTO struct {
	TargetUnit string `json:"target_unit"`
	Factor     string `json:"factor"`
	Offset     string `json:"offset"`
}

// ConvertRequest is the body of POST /api/convert.
type ConvertRequest struct {
	FromUnitID string          `json:"from_unit_id"`
	ToUnitID   string          `json:"to_unit_id"`
	Value      decimal.Decimal `json:"value"`
	Precision  *int32          `json:"precision,omitempty"`
	Strict     bool            `json:"strict,omitempty"`
}

// ConversionResultDTO represents a conversion result.
type ConversionResultDTO struct {
	ID             string `json:"id"`
	OriginalValue  string `json:"original_value"`
	FromUnit       string `json:"from_unit"`
	ConvertedValue string `json:"converted_value"`
	ToUnit         string `json:"to_unit"`
	Formatted      string `json:"formatted,omitempty"`
	Factor         string `json:"factor"`
	Offset         string `json:"offset"`
	Path           string `json:"path"`
	PrecisionUsed  int32  `json:"precision_used"`
	ConvertedAt    string `json:"converted_at"`
}

// CatalogDTO describes a loadable preset unit set.
type CatalogDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitCount   int    `json:"unit_count"`
}

// LoadCatalogRequest is the request to load a preset catalog.
type LoadCatalogRequest struct {
	CatalogID string `json:"catalog_id"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toUnitDTO(u *measure.MeasurementUnit) UnitDTO {
	dto := UnitDTO{
		ID:            string(u.ID),
		Name:          u.Name,
		Symbol:        u.Symbol,
		DisplayName:   u.DisplayName,
		Description:   u.Description,
		UnitType:      string(u.UnitType),
		UnitSystem:    string(u.UnitSystem),
		IsBaseUnit:    u.IsBaseUnit,
		BaseUnitRef:   string(u.BaseUnitRef),
		DecimalPlaces: u.DecimalPlaces,
		Precision:     u.Precision.String(),
		AllowNegative: u.AllowNegative,
		IsActive:      u.IsActive,
		IsSystemUnit:  u.IsSystemUnit,
		UsageCount:    u.UsageCount,
	}
	for _, cf := range u.ConversionFactors {
		dto.Factors = append(dto.Factors, FactorDTO{
			TargetUnit: string(cf.TargetUnit),
			Factor:     cf.Factor.String(),
			Offset:     cf.Offset.String(),
		})
	}
	if u.MinValue != nil {
		v := u.MinValue.String()
		dto.MinValue = &v
	}
	if u.MaxValue != nil {
		v := u.MaxValue.String()
		dto.MaxValue = &v
	}
	if u.LastUsed != nil {
		dto.LastUsed = u.LastUsed.Format(timeFormat)
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(timeFormat)
	}
	return dto
}

func toConversionDTO(r *measure.ConversionResult, formatted string) ConversionResultDTO {
	return ConversionResultDTO{
		ID:             r.ID,
		OriginalValue:  r.OriginalValue.String(),
		FromUnit:       string(r.FromUnit),
		ConvertedValue: r.ConvertedValue.String(),
		ToUnit:         string(r.ToUnit),
		Formatted:      formatted,
		Factor:         r.Factor.String(),
		Offset:         r.Offset.String(),
		Path:           string(r.Path),
		PrecisionUsed:  r.PrecisionUsed,
		ConvertedAt:    r.ConvertedAt.Format(timeFormat),
	}
}
