package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"cloud.google.com/go/civil"
)

// Alert is one early-warning (EWS) entry: a pond in category High on the
// latest reported date.
type Alert struct {
	ID     string `json:"id"`
	Record Record `json:"record"`
}

// AlertSet is the result of evaluating the latest snapshot.
//
// Empty distinguishes "no data at all" from "no alerts": an empty table gives
// Empty=true, while a table whose latest day has no High pond gives
// Empty=false with no alerts.
type AlertSet struct {
	Empty  bool       `json:"empty"`
	Date   civil.Date `json:"date"`
	Alerts []Alert    `json:"alerts"`
}

// HasAlerts reports whether any pond is in alert.
func (a AlertSet) HasAlerts() bool { return len(a.Alerts) > 0 }

// EvaluateAlerts builds the snapshot of the most recent date in the table
// (not necessarily today) and returns its High records. Unknown records never
// alert. A duplicate key on that date returns a *DataConflictError.
func EvaluateAlerts(t *Table) (AlertSet, error) {
	latest, ok := t.MaxDate()
	if !ok {
		return AlertSet{Empty: true, Alerts: []Alert{}}, nil
	}

	snap, err := t.Snapshot(latest)
	if err != nil {
		return AlertSet{}, fmt.Errorf("evaluate alerts for %s: %w", latest, err)
	}

	set := AlertSet{Date: latest, Alerts: []Alert{}}
	for _, r := range snap.Records {
		if !r.Category.IsAlert() {
			continue
		}
		set.Alerts = append(set.Alerts, Alert{ID: alertID(r.Key()), Record: r})
	}
	return set, nil
}

// alertID produces a deterministic ID from the record key so re-evaluating
// the same day yields the same IDs and downstream consumers can deduplicate.
func alertID(k RecordKey) string {
	hash := sha256.Sum256([]byte(k.Date.String() + "|" + k.PondID))
	return "ews-" + hex.EncodeToString(hash[:8])
}
