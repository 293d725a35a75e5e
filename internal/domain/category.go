package domain

import "cloud.google.com/go/civil"

// CategoryBreakdown is the per-category view of a snapshot: how many ponds
// are in each status and which ones, in table order.
type CategoryBreakdown struct {
	Date    civil.Date
	Order   []Category
	Counts  map[Category]int
	Members map[Category][]string
}

// CategoryGroup is one entry of an ordered breakdown.
type CategoryGroup struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Ponds    []string `json:"ponds"`
}

// AggregateByCategory groups a snapshot by category. Only categories present
// in the snapshot appear. Order lists Low, Medium, High, Unknown (when
// present), then any other label in first-seen order; member lists keep the
// snapshot's record order.
func AggregateByCategory(s Snapshot) CategoryBreakdown {
	b := CategoryBreakdown{
		Date:    s.Date,
		Counts:  make(map[Category]int),
		Members: make(map[Category][]string),
	}

	var extra []Category
	for _, r := range s.Records {
		c := r.Category
		if c == "" {
			c = CategoryUnknown
		}
		if _, seen := b.Counts[c]; !seen && c.Rank() == 0 && c != CategoryUnknown {
			extra = append(extra, c)
		}
		b.Counts[c]++
		b.Members[c] = append(b.Members[c], r.PondID)
	}

	for _, c := range canonicalOrder {
		if b.Counts[c] > 0 {
			b.Order = append(b.Order, c)
		}
	}
	b.Order = append(b.Order, extra...)
	return b
}

// Groups returns the breakdown as an ordered slice, suitable for
// serialization where map ordering would be lost.
func (b CategoryBreakdown) Groups() []CategoryGroup {
	out := make([]CategoryGroup, 0, len(b.Order))
	for _, c := range b.Order {
		out = append(out, CategoryGroup{
			Category: c,
			Count:    b.Counts[c],
			Ponds:    append([]string(nil), b.Members[c]...),
		})
	}
	return out
}

// Total returns the number of records counted; it equals the snapshot length.
func (b CategoryBreakdown) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}
