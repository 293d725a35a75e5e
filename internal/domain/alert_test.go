package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAlerts_EmptyTable(t *testing.T) {
	set, err := EvaluateAlerts(NewTable(nil))
	require.NoError(t, err)

	assert.True(t, set.Empty)
	assert.Empty(t, set.Alerts)
	assert.False(t, set.HasAlerts())
}

func TestEvaluateAlerts_NoHighOnLatestDate(t *testing.T) {
	// SP2 is High on 2024-01-01 but the latest date is 2024-01-02.
	set, err := EvaluateAlerts(scenarioTable())
	require.NoError(t, err)

	assert.False(t, set.Empty)
	assert.Equal(t, jan2, set.Date)
	assert.Empty(t, set.Alerts)
}

func TestEvaluateAlerts_HighOnLatestDate(t *testing.T) {
	tbl := NewTable([]Record{
		{Date: jan1, PondID: "SP1", Category: CategoryHigh},
		{Date: jan2, PondID: "SP1", Category: CategoryHigh},
		{Date: jan2, PondID: "SP2", Category: CategoryUnknown},
		{Date: jan2, PondID: "SP3", Category: CategoryMedium},
		{Date: jan2, PondID: "SP4", Category: CategoryHigh},
	})

	set, err := EvaluateAlerts(tbl)
	require.NoError(t, err)

	require.Len(t, set.Alerts, 2)
	assert.Equal(t, "SP1", set.Alerts[0].Record.PondID)
	assert.Equal(t, "SP4", set.Alerts[1].Record.PondID)
	assert.Equal(t, jan2, set.Alerts[0].Record.Date)
	assert.True(t, set.HasAlerts())
}

func TestEvaluateAlerts_LatestDateNotToday(t *testing.T) {
	// Latest is the max date present, regardless of the gap to now.
	tbl := NewTable([]Record{
		{Date: jan5, PondID: "SP1", Category: CategoryHigh},
		{Date: jan1, PondID: "SP1", Category: CategoryLow},
	})

	set, err := EvaluateAlerts(tbl)
	require.NoError(t, err)
	assert.Equal(t, jan5, set.Date)
	assert.Len(t, set.Alerts, 1)
}

func TestEvaluateAlerts_Conflict(t *testing.T) {
	tbl := NewTable([]Record{
		{Date: jan2, PondID: "SP1", Category: CategoryHigh},
		{Date: jan2, PondID: "SP1", Category: CategoryLow},
	})

	_, err := EvaluateAlerts(tbl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataConflict))
}

func TestAlertID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, alertID(RecordKey{Date: jan1, PondID: "SP1"}), alertID(RecordKey{Date: jan1, PondID: "SP1"}))
	})

	t.Run("different keys produce different IDs", func(t *testing.T) {
		assert.NotEqual(t, alertID(RecordKey{Date: jan1, PondID: "SP1"}), alertID(RecordKey{Date: jan2, PondID: "SP1"}))
		assert.NotEqual(t, alertID(RecordKey{Date: jan1, PondID: "SP1"}), alertID(RecordKey{Date: jan1, PondID: "SP2"}))
	})

	t.Run("prefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(alertID(RecordKey{Date: jan1, PondID: "SP1"}), "ews-"))
	})
}
