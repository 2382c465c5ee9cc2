package dataseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadableDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "January 5, 2024", DataPoint{Date: "2024-01-05"}.ReadableDate())
	assert.Equal(t, "December 31, 1999", DataPoint{Date: "1999-12-31"}.ReadableDate())

	// unparseable dates pass through verbatim
	assert.Equal(t, "not-a-date", DataPoint{Date: "not-a-date"}.ReadableDate())
	assert.Equal(t, "", DataPoint{Date: ""}.ReadableDate())
}

func TestDataPointDict(t *testing.T) {
	t.Parallel()

	dict := DataPoint{Date: "2024-01-05", Value: 1536, ValueType: ValueTypeFilesize}.Dict()
	assert.Equal(t, []any{"2024-01-05", float64(1536)}, dict["value"])
	assert.Equal(t, "January 5, 2024", dict["readableDate"])
	assert.Equal(t, "filesize", dict["valueType"])
}

func TestDocumentDate(t *testing.T) {
	t.Parallel()

	doc := ParseDocument([]byte(`{"period_start": "2024-01-05T00:00:00", "snapshot_date": "2024"}`))

	date, ok := doc.Date("period_start")
	assert.True(t, ok)
	assert.Equal(t, "2024-01-05", date)

	// too short to carry a calendar day
	_, ok = doc.Date("snapshot_date")
	assert.False(t, ok)

	_, ok = doc.Date("missing")
	assert.False(t, ok)
}

func TestCategory(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, Category("record").Valid())
	assert.False(t, Category("").Valid())

	assert.Equal(t, "period_start", CategoryRecordDelta.DateField())
	assert.Equal(t, "period_start", CategoryUsageDelta.DateField())
	assert.Equal(t, "snapshot_date", CategoryRecordSnapshot.DateField())
	assert.Equal(t, "snapshot_date", CategoryUsageSnapshot.DateField())

	assert.Equal(t, "bar", CategoryUsageDelta.ChartType())
	assert.Equal(t, "line", CategoryUsageSnapshot.ChartType())
}
