package dataseries

import "github.com/tidwall/gjson"

// Usage deltas and snapshots share one field layout: the delta's totals
// describe the day, the snapshot's totals are cumulative. Extraction is
// therefore identical; only chart types differ.

func usageMetrics() []Metric {
	return []Metric{
		{
			Key:       "views",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("totals.view.total_events")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("view.total_events")) },
		},
		{
			Key:       "downloads",
			ValueType: ValueTypeNumber,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("totals.download.total_events")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("download.total_events")) },
		},
		{
			Key:       "visitors",
			ValueType: ValueTypeNumber,
			Global: func(d Document) (float64, bool) {
				return maxVisitors(d.Get("totals.view.unique_visitors"), d.Get("totals.download.unique_visitors"))
			},
			Item: func(it gjson.Result) (float64, bool) {
				return maxVisitors(it.Get("view.unique_visitors"), it.Get("download.unique_visitors"))
			},
		},
		{
			Key:       "data_volume",
			ValueType: ValueTypeFilesize,
			Global:    func(d Document) (float64, bool) { return numValue(d.Get("totals.download.total_volume")) },
			Item:      func(it gjson.Result) (float64, bool) { return numValue(it.Get("download.total_volume")) },
		},
	}
}

// maxVisitors merges the two independently tracked unique-visitor counts.
// View and download visitors are counted by separate pipelines with no
// shared visitor-identity join, so a visitor who both viewed and downloaded
// appears in both counts; taking the max (never the sum) counts them once
// and is the established conservative overlap estimate for the dashboard.
func maxVisitors(view, download gjson.Result) (float64, bool) {
	v, vok := numValue(view)
	d, dok := numValue(download)
	if !vok && !dok {
		return 0, false
	}
	if d > v {
		return d, true
	}
	return v, true
}
