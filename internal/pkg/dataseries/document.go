package dataseries

import (
	"strings"

	"github.com/tidwall/gjson"
)

type Category string

const (
	CategoryRecordDelta    Category = "record-delta"
	CategoryRecordSnapshot Category = "record-snapshot"
	CategoryUsageDelta     Category = "usage-delta"
	CategoryUsageSnapshot  Category = "usage-snapshot"
)

func Categories() []Category {
	return []Category{
		CategoryRecordDelta,
		CategoryRecordSnapshot,
		CategoryUsageDelta,
		CategoryUsageSnapshot,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryRecordDelta, CategoryRecordSnapshot, CategoryUsageDelta, CategoryUsageSnapshot:
		return true
	}
	return false
}

func (c Category) IsDelta() bool {
	return c == CategoryRecordDelta || c == CategoryUsageDelta
}

func (c Category) IsUsage() bool {
	return c == CategoryUsageDelta || c == CategoryUsageSnapshot
}

// DateField returns the name of the required date field for documents of
// this category. Documents lacking it are skipped, never erroring.
func (c Category) DateField() string {
	if c.IsDelta() {
		return "period_start"
	}
	return "snapshot_date"
}

// ChartType is the default chart rendering for series of this category:
// deltas render as bars (day-over-day change), snapshots as lines.
func (c Category) ChartType() string {
	if c.IsDelta() {
		return "bar"
	}
	return "line"
}

// Document is one aggregation document. The underlying JSON is accessed
// dynamically since field presence varies across years of aggregation
// history.
type Document struct {
	root gjson.Result
}

func ParseDocument(src []byte) Document {
	return Document{root: gjson.ParseBytes(src)}
}

func (d Document) Get(path string) gjson.Result {
	return d.root.Get(path)
}

// Date extracts the document's bucket date from field, normalized to
// YYYY-MM-DD. Returns false when the field is absent or too short to carry a
// calendar day, in which case the document must be skipped. The result is
// cloned: gjson strings alias the source buffer, and a date outlives its
// document.
func (d Document) Date(field string) (string, bool) {
	raw := d.root.Get(field).String()
	if len(raw) < 10 {
		return "", false
	}
	return strings.Clone(raw[:10]), true
}
