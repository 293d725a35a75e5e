package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Table is the immutable, ordered set of records produced by one ingestion
// cycle. Input order is preserved; it drives the member order of the
// category breakdown.
type Table struct {
	records []Record
	byDate  map[civil.Date][]int
	dates   []civil.Date
	ponds   []string

	// conflicts holds the duplicated keys per date, in first-seen order.
	conflicts map[civil.Date][]RecordKey
}

// NewTable indexes records into a Table. The slice is copied; later changes
// by the caller do not affect the table. Duplicate (date, pond) keys are kept
// and surfaced by the views that need a unique record.
func NewTable(records []Record) *Table {
	t := &Table{
		records:   make([]Record, len(records)),
		byDate:    make(map[civil.Date][]int),
		conflicts: make(map[civil.Date][]RecordKey),
	}
	copy(t.records, records)

	seenKey := make(map[RecordKey]int, len(records))
	seenPond := make(map[string]struct{})
	for i, r := range t.records {
		if r.Category == "" {
			t.records[i].Category = CategoryUnknown
		}
		if _, ok := t.byDate[r.Date]; !ok {
			t.dates = append(t.dates, r.Date)
		}
		t.byDate[r.Date] = append(t.byDate[r.Date], i)

		if _, ok := seenPond[r.PondID]; !ok {
			seenPond[r.PondID] = struct{}{}
			t.ponds = append(t.ponds, r.PondID)
		}

		k := r.Key()
		seenKey[k]++
		if seenKey[k] == 2 {
			t.conflicts[r.Date] = append(t.conflicts[r.Date], k)
		}
	}

	sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })
	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// IsEmpty reports whether the table holds no records.
func (t *Table) IsEmpty() bool { return t.Len() == 0 }

// Records returns a copy of all records in table order.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Dates returns the distinct dates present, ascending.
func (t *Table) Dates() []civil.Date {
	if t == nil {
		return nil
	}
	out := make([]civil.Date, len(t.dates))
	copy(out, t.dates)
	return out
}

// MaxDate returns the most recent date present. ok is false for an empty table.
func (t *Table) MaxDate() (civil.Date, bool) {
	if t.IsEmpty() {
		return civil.Date{}, false
	}
	return t.dates[len(t.dates)-1], true
}

// Ponds returns the distinct pond IDs in first-seen order.
func (t *Table) Ponds() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.ponds))
	copy(out, t.ponds)
	return out
}

// Conflicts returns the duplicated keys recorded for date, if any.
func (t *Table) Conflicts(date civil.Date) []RecordKey {
	if t == nil {
		return nil
	}
	return t.conflicts[date]
}

// Snapshot returns the records whose date equals date, in table order.
// A date with no records (including one outside the table's range) yields
// an empty snapshot, not an error. Duplicate keys on that date return a
// *DataConflictError.
func (t *Table) Snapshot(date civil.Date) (Snapshot, error) {
	s := Snapshot{Date: date, Records: []Record{}}
	if t == nil {
		return s, nil
	}
	if keys := t.conflicts[date]; len(keys) > 0 {
		return Snapshot{}, &DataConflictError{Keys: append([]RecordKey(nil), keys...)}
	}
	idx := t.byDate[date]
	if len(idx) == 0 {
		return s, nil
	}
	s.Records = make([]Record, len(idx))
	for i, j := range idx {
		s.Records[i] = t.records[j]
	}
	return s, nil
}

// SnapshotAt is Snapshot for the calendar day of ts, in ts's own location.
// Any time-of-day component is discarded.
func (t *Table) SnapshotAt(ts time.Time) (Snapshot, error) {
	return t.Snapshot(civil.DateOf(ts))
}

// Snapshot is all records of one calendar date.
type Snapshot struct {
	Date    civil.Date `json:"date"`
	Records []Record   `json:"records"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.Records) }

// IsEmpty reports whether no records were reported on the snapshot date.
func (s Snapshot) IsEmpty() bool { return len(s.Records) == 0 }
