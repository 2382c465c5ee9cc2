package dataseries

import "github.com/tidwall/gjson"

// Record categories share five metrics. The combined files object is always
// split into the two independent file_count/data_volume metrics; a unified
// "files" metric never reaches the output.

func recordDeltaMetrics() []Metric {
	return []Metric{
		{
			Key:       "records",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return netChange(d.Get("records")) },
			Item:      func(it gjson.Result) (float64, bool) { return netChange(it.Get("records")) },
			Presence:  presenceNet("records"),
		},
		{
			Key:       "parents",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return netChange(d.Get("parents")) },
			Item:      func(it gjson.Result) (float64, bool) { return netChange(it.Get("parents")) },
			Presence:  presenceNet("parents"),
		},
		{
			Key:       "uploaders",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return netChange(d.Get("uploaders")) },
			Item:      func(it gjson.Result) (float64, bool) { return netChange(it.Get("uploaders")) },
		},
		{
			Key:       "file_count",
			ValueType: ValueTypeNumber,
			Global:    deltaFileMetric("file_count"),
			Item:      deltaItemFileMetric("file_count"),
		},
		{
			Key:       "data_volume",
			ValueType: ValueTypeFilesize,
			Global:    deltaFileMetric("data_volume"),
			Item:      deltaItemFileMetric("data_volume"),
		},
	}
}

func recordSnapshotMetrics() []Metric {
	return []Metric{
		{
			Key:       "records",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return totalValue(d.Get("total_records")) },
			Item:      func(it gjson.Result) (float64, bool) { return totalValue(it.Get("records")) },
			Presence:  presenceTotal("total_records"),
		},
		{
			Key:       "parents",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return totalValue(d.Get("total_parents")) },
			Item:      func(it gjson.Result) (float64, bool) { return totalValue(it.Get("parents")) },
			Presence:  presenceTotal("total_parents"),
		},
		{
			Key:       "uploaders",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("total_uploaders")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("uploaders")) },
		},
		{
			Key:       "file_count",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("total_files.file_count")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("files.file_count")) },
		},
		{
			Key:       "data_volume",
			ValueType: ValueTypeFilesize,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("total_files.data_volume")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("files.data_volume")) },
		},
	}
}

// deltaFileMetric reads one half of the combined files object on a delta
// document, as added minus removed of the given sub-field.
func deltaFileMetric(sub string) func(d Document) (float64, bool) {
	return func(d Document) (float64, bool) {
		added, aok := numValue(d.Get("files.added." + sub))
		removed, rok := numValue(d.Get("files.removed." + sub))
		if !aok && !rok {
			return 0, false
		}
		return added - removed, true
	}
}

func deltaItemFileMetric(sub string) func(it gjson.Result) (float64, bool) {
	return func(it gjson.Result) (float64, bool) {
		added, aok := numValue(it.Get("files.added." + sub))
		removed, rok := numValue(it.Get("files.removed." + sub))
		if !aok && !rok {
			return 0, false
		}
		return added - removed, true
	}
}

// presenceNet computes, for one file-presence bucket, the net change of a
// delta field without summing the buckets together: metadata_only and
// with_files each keep their own added-removed arithmetic.
func presenceNet(field string) func(d Document, presence string) (float64, bool) {
	return func(d Document, presence string) (float64, bool) {
		added, aok := numValue(d.Get(field + ".added." + presence))
		removed, rok := numValue(d.Get(field + ".removed." + presence))
		if !aok && !rok {
			return 0, false
		}
		return added - removed, true
	}
}

// presenceTotal reads one file-presence bucket's cumulative total from a
// snapshot field.
func presenceTotal(field string) func(d Document, presence string) (float64, bool) {
	return func(d Document, presence string) (float64, bool) {
		return numValue(d.Get(field + "." + presence))
	}
}
