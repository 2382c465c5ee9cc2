package dataseries

import "github.com/tidwall/gjson"

// Metric is one registry entry for a document category. Extractors return
// (value, ok); ok is false whenever the document simply does not carry the
// metric's source field, which yields no point rather than a zero point.
//
// The registry per category is a closed set: discovery only ever activates
// metrics declared here, so unrelated numeric fields appearing in future
// document shapes are never silently picked up as metrics.
type Metric struct {
	Key       string
	ValueType ValueType

	// Global extracts the document-wide value.
	Global func(d Document) (float64, bool)

	// Item extracts the value for one subcount item entry.
	Item func(item gjson.Result) (float64, bool)

	// Presence extracts the value for one file-presence bucket
	// ("metadata_only" or "with_files"). Nil for usage metrics.
	Presence func(d Document, presence string) (float64, bool)
}

func metricsFor(c Category) []Metric {
	switch c {
	case CategoryRecordDelta:
		return recordDeltaMetrics()
	case CategoryRecordSnapshot:
		return recordSnapshotMetrics()
	case CategoryUsageDelta, CategoryUsageSnapshot:
		return usageMetrics()
	}
	return nil
}

// numValue reads a plain numeric field.
func numValue(r gjson.Result) (float64, bool) {
	if !r.Exists() || r.Type != gjson.Number {
		return 0, false
	}
	return r.Float(), true
}

// sumNumeric sums the numeric members of an object, or returns the value
// itself when the field is already a plain number. Non-numeric members are
// ignored; a field of any other shape is treated as absent.
func sumNumeric(r gjson.Result) (float64, bool) {
	if !r.Exists() {
		return 0, false
	}
	if r.Type == gjson.Number {
		return r.Float(), true
	}
	if !r.IsObject() {
		return 0, false
	}
	var sum float64
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.Number {
			sum += v.Float()
		}
		return true
	})
	return sum, true
}

// netChange computes added minus removed for a delta field, each side summed
// across its sub-metrics (e.g. metadata_only + with_files). A field that is
// already a plain number is taken as the net value directly.
func netChange(r gjson.Result) (float64, bool) {
	if !r.Exists() {
		return 0, false
	}
	if r.Type == gjson.Number {
		return r.Float(), true
	}
	if !r.IsObject() {
		return 0, false
	}
	added, aok := sumNumeric(r.Get("added"))
	removed, rok := sumNumeric(r.Get("removed"))
	if !aok && !rok {
		return 0, false
	}
	return added - removed, true
}

// totalValue reads a snapshot total: either a plain number or an object
// whose numeric members are summed. Summing matters for records/parents
// totals, which arrive as {metadata_only, with_files} components and are
// never pre-summed.
func totalValue(r gjson.Result) (float64, bool) {
	return sumNumeric(r)
}
