package domain

import (
	"sort"

	"cloud.google.com/go/civil"
)

// GroupByPond is the only supported series grouping key.
const GroupByPond = "pond_id"

// Field names a measurement column of Record.
type Field string

const (
	FieldMaxRainfall        Field = "max_rainfall_mm"
	FieldRemainingFreeboard Field = "remaining_freeboard_m"
	FieldActualDischarge    Field = "actual_discharge_m3s"
	FieldTSSInflow          Field = "tss_inflow_ton"
	FieldTSSOutflow         Field = "tss_outflow_ton"
	FieldWaterLevel         Field = "water_level_m"
)

var fields = []Field{
	FieldMaxRainfall,
	FieldRemainingFreeboard,
	FieldActualDischarge,
	FieldTSSInflow,
	FieldTSSOutflow,
	FieldWaterLevel,
}

// Fields returns the names of all measurement fields.
func Fields() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// ParseField validates a measurement field name.
func ParseField(name string) (Field, error) {
	for _, f := range fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", &InvalidFieldError{Field: name, Valid: Fields()}
}

// Value returns the record's measurement for f, nil when absent.
func (f Field) Value(r Record) *float64 {
	switch f {
	case FieldMaxRainfall:
		return r.MaxRainfallMM
	case FieldRemainingFreeboard:
		return r.RemainingFreeboardM
	case FieldActualDischarge:
		return r.ActualDischargeM3S
	case FieldTSSInflow:
		return r.TSSInflowTon
	case FieldTSSOutflow:
		return r.TSSOutflowTon
	case FieldWaterLevel:
		return r.WaterLevelM
	default:
		return nil
	}
}

// Point is one (date, value) sample. A nil Value is an absent measurement
// and must be rendered as a gap.
type Point struct {
	Date  civil.Date `json:"date"`
	Value *float64   `json:"value"`
}

// Series is the history of one field per pond.
type Series struct {
	Field  Field              `json:"field"`
	Ponds  []string           `json:"ponds"`
	Points map[string][]Point `json:"points"`
}

// ExtractSeries returns, for every pond, one point per date on which the pond
// appears, ascending by date. Absent values are kept as nil points. groupBy
// must be "pond_id" (empty means the same). Duplicate (date, pond) keys
// return a *DataConflictError.
func ExtractSeries(t *Table, field, groupBy string) (Series, error) {
	f, err := ParseField(field)
	if err != nil {
		return Series{}, err
	}
	if groupBy != "" && groupBy != GroupByPond {
		return Series{}, &InvalidFieldError{Field: groupBy, Valid: []string{GroupByPond}}
	}

	var conflicts []RecordKey
	for _, d := range t.Dates() {
		conflicts = append(conflicts, t.Conflicts(d)...)
	}
	if len(conflicts) > 0 {
		return Series{}, &DataConflictError{Keys: conflicts}
	}

	s := Series{
		Field:  f,
		Ponds:  t.Ponds(),
		Points: make(map[string][]Point),
	}
	if s.Ponds == nil {
		s.Ponds = []string{}
	}
	for _, r := range t.Records() {
		s.Points[r.PondID] = append(s.Points[r.PondID], Point{Date: r.Date, Value: f.Value(r)})
	}
	for _, pts := range s.Points {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	}
	return s, nil
}
