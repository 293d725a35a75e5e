package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Category is the severity label (Kriteria) of a pond on a given day.
type Category string

const (
	CategoryLow     Category = "Low"
	CategoryMedium  Category = "Medium"
	CategoryHigh    Category = "High"
	CategoryUnknown Category = "Unknown"
)

// canonicalOrder is the enumeration order used by the category breakdown.
// Labels outside this list follow in first-seen order.
var canonicalOrder = []Category{CategoryLow, CategoryMedium, CategoryHigh, CategoryUnknown}

// ParseCategory normalizes a raw Kriteria cell. Known labels are matched
// case-insensitively after trimming; blanks, spreadsheet sentinels and
// unrecognized labels map to Unknown.
func ParseCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return CategoryLow
	case "medium":
		return CategoryMedium
	case "high":
		return CategoryHigh
	default:
		return CategoryUnknown
	}
}

// Rank orders the ranked categories: Low=1, Medium=2, High=3.
// Unknown and any other label return 0 (unranked).
func (c Category) Rank() int {
	switch c {
	case CategoryLow:
		return 1
	case CategoryMedium:
		return 2
	case CategoryHigh:
		return 3
	default:
		return 0
	}
}

// IsAlert reports whether a record in this category raises an early-warning
// alert. Only an explicit High does.
func (c Category) IsAlert() bool {
	return c == CategoryHigh
}

// Record is one row of daily pond measurement data. Nil measurements are
// absent in the source and encode as JSON null.
type Record struct {
	Date     civil.Date `json:"date"`
	PondID   string     `json:"pond_id"`
	Category Category   `json:"category"`

	MaxRainfallMM       *float64 `json:"max_rainfall_mm"`
	RemainingFreeboardM *float64 `json:"remaining_freeboard_m"`
	ActualDischargeM3S  *float64 `json:"actual_discharge_m3s"`
	TSSInflowTon        *float64 `json:"tss_inflow_ton"`
	TSSOutflowTon       *float64 `json:"tss_outflow_ton"`
	WaterLevelM         *float64 `json:"water_level_m"`
}

// Key returns the (date, pond) identity of the record.
func (r Record) Key() RecordKey {
	return RecordKey{Date: r.Date, PondID: r.PondID}
}

// RecordKey identifies a record within a table.
type RecordKey struct {
	Date   civil.Date `json:"date"`
	PondID string     `json:"pond_id"`
}

func (k RecordKey) String() string {
	return k.PondID + "/" + k.Date.String()
}

// Float returns a pointer to v, for building records with present measurements.
func Float(v float64) *float64 {
	return &v
}
