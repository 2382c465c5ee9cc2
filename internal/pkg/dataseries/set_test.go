package dataseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/sjson"
)

const recordDeltaDoc = `{
	"period_start": "2024-01-05T00:00:00",
	"records": {
		"added": {"metadata_only": 2, "with_files": 5},
		"removed": {"metadata_only": 1, "with_files": 0}
	},
	"parents": {
		"added": {"metadata_only": 1, "with_files": 4},
		"removed": {"metadata_only": 0, "with_files": 1}
	},
	"uploaders": 3,
	"files": {
		"added": {"file_count": 10, "data_volume": 2048},
		"removed": {"file_count": 2, "data_volume": 512}
	},
	"subcounts": {
		"resource_types": [
			{
				"id": "dataset",
				"label": {"en": "Dataset"},
				"records": {
					"added": {"metadata_only": 1, "with_files": 2},
					"removed": {"metadata_only": 0, "with_files": 1}
				},
				"files": {
					"added": {"file_count": 4, "data_volume": 1024},
					"removed": {"file_count": 0, "data_volume": 0}
				}
			}
		]
	}
}`

const recordSnapshotDoc = `{
	"snapshot_date": "2024-03-01",
	"total_records": {"metadata_only": 3, "with_files": 9},
	"total_parents": {"metadata_only": 2, "with_files": 7},
	"total_uploaders": 6,
	"total_files": {"file_count": 40, "data_volume": 123456},
	"subcounts": {
		"access_statuses": [
			{
				"id": "open",
				"label": "Open",
				"records": {"metadata_only": 1, "with_files": 6},
				"files": {"file_count": 30, "data_volume": 100000}
			}
		]
	}
}`

const usageDeltaDoc = `{
	"period_start": "2024-02-01T00:00:00",
	"totals": {
		"view": {"total_events": 40, "unique_visitors": 25},
		"download": {"total_events": 15, "unique_visitors": 30, "total_volume": 4096}
	},
	"subcounts": {
		"countries": [
			{
				"id": "us",
				"label": "United States",
				"view": {"total_events": 12, "unique_visitors": 9},
				"download": {"total_events": 4, "unique_visitors": 2, "total_volume": 100}
			}
		]
	}
}`

const usageSnapshotDoc = `{
	"snapshot_date": "2024-02-02",
	"totals": {
		"view": {"total_events": 400, "unique_visitors": 120},
		"download": {"total_events": 90, "unique_visitors": 80, "total_volume": 987654}
	},
	"subcounts": {
		"countries": {
			"by_view": [
				{"id": "us", "label": "United States", "view": {"total_events": 150, "unique_visitors": 40}}
			],
			"by_download": [
				{"id": "de", "label": "Germany", "download": {"total_events": 30, "unique_visitors": 10, "total_volume": 5000}}
			]
		}
	}
}`

func pointValue(t *testing.T, dict map[string]any) (string, float64) {
	t.Helper()
	pair, ok := dict["value"].([]any)
	if !assert.True(t, ok) || !assert.Len(t, pair, 2) {
		return "", 0
	}
	return pair[0].(string), pair[1].(float64)
}

func singleSeriesPoints(t *testing.T, r *Result, subcount, metric string) []map[string]any {
	t.Helper()
	series := r.Series(subcount, metric)
	if !assert.Len(t, series, 1) {
		return nil
	}
	return series[0]["data"].([]map[string]any)
}

func TestBuilderRecordDelta(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryRecordDelta, nil)
	b.AddRaw([]byte(recordDeltaDoc))
	r := b.Build()

	t.Run("GlobalNetChanges", func(t *testing.T) {
		for _, tc := range []struct {
			metric string
			want   float64
		}{
			{"records", 6},     // (2+5) - (1+0)
			{"parents", 4},     // (1+4) - (0+1)
			{"uploaders", 3},   // plain number taken as net
			{"file_count", 8},  // 10 - 2
			{"data_volume", 1536},
		} {
			points := singleSeriesPoints(t, r, GlobalKey, tc.metric)
			if assert.Len(t, points, 1) {
				date, value := pointValue(t, points[0])
				assert.Equal(t, "2024-01-05", date, tc.metric)
				assert.Equal(t, tc.want, value, tc.metric)
			}
		}
	})

	t.Run("GlobalIsOneElementList", func(t *testing.T) {
		series := r.Series(GlobalKey, "records")
		assert.Len(t, series, 1)
		assert.Equal(t, "global", series[0]["id"])
		assert.Equal(t, "Global", series[0]["name"])
		assert.Equal(t, "bar", series[0]["type"])
	})

	t.Run("SubcountItem", func(t *testing.T) {
		series := r.Series("resource_types", "records")
		if assert.Len(t, series, 1) {
			assert.Equal(t, "dataset", series[0]["id"])
			assert.Equal(t, map[string]any{"en": "Dataset"}, series[0]["name"])
			points := series[0]["data"].([]map[string]any)
			if assert.Len(t, points, 1) {
				_, value := pointValue(t, points[0])
				assert.Equal(t, float64(2), value) // (1+2) - (0+1)
			}
		}
	})

	t.Run("FilePresenceBucketsStaySeparate", func(t *testing.T) {
		series := r.Series(FilePresenceKey, "records")
		if assert.Len(t, series, 2) {
			assert.Equal(t, "metadata_only", series[0]["id"])
			assert.Equal(t, "Metadata Only", series[0]["name"])
			_, metaOnly := pointValue(t, series[0]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(1), metaOnly) // 2 - 1, not summed with with_files

			assert.Equal(t, "with_files", series[1]["id"])
			_, withFiles := pointValue(t, series[1]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(5), withFiles)
		}
	})

	t.Run("FilePresenceSkipsNonPresenceMetrics", func(t *testing.T) {
		assert.NotContains(t, r.Dict()[FilePresenceKey], "uploaders")
		assert.NotContains(t, r.Dict()[FilePresenceKey], "file_count")
	})

	t.Run("ValueTypes", func(t *testing.T) {
		records := r.Series(GlobalKey, "records")
		assert.Equal(t, "number", records[0]["valueType"])
		volume := r.Series(GlobalKey, "data_volume")
		assert.Equal(t, "filesize", volume[0]["valueType"])
	})
}

func TestBuilderRecordSnapshot(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryRecordSnapshot, nil)
	b.AddRaw([]byte(recordSnapshotDoc))
	r := b.Build()

	t.Run("GlobalTotals", func(t *testing.T) {
		for _, tc := range []struct {
			metric string
			want   float64
		}{
			{"records", 12}, // 3 + 9
			{"parents", 9},  // 2 + 7
			{"uploaders", 6},
			{"file_count", 40},
			{"data_volume", 123456},
		} {
			points := singleSeriesPoints(t, r, GlobalKey, tc.metric)
			if assert.Len(t, points, 1) {
				date, value := pointValue(t, points[0])
				assert.Equal(t, "2024-03-01", date, tc.metric)
				assert.Equal(t, tc.want, value, tc.metric)
			}
		}
	})

	t.Run("SnapshotsRenderAsLines", func(t *testing.T) {
		series := r.Series(GlobalKey, "records")
		assert.Equal(t, "line", series[0]["type"])
	})

	t.Run("FilePresenceTotals", func(t *testing.T) {
		series := r.Series(FilePresenceKey, "records")
		if assert.Len(t, series, 2) {
			_, metaOnly := pointValue(t, series[0]["data"].([]map[string]any)[0])
			_, withFiles := pointValue(t, series[1]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(3), metaOnly)
			assert.Equal(t, float64(9), withFiles)
		}
	})

	t.Run("SubcountItemTotals", func(t *testing.T) {
		series := r.Series("access_statuses", "records")
		if assert.Len(t, series, 1) {
			assert.Equal(t, "open", series[0]["id"])
			assert.Equal(t, "Open", series[0]["name"])
			_, value := pointValue(t, series[0]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(7), value) // 1 + 6
		}
	})
}

func TestBuilderUsageDelta(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryUsageDelta, nil)
	b.AddRaw([]byte(usageDeltaDoc))
	r := b.Build()

	t.Run("GlobalMetrics", func(t *testing.T) {
		for _, tc := range []struct {
			metric string
			want   float64
		}{
			{"views", 40},
			{"downloads", 15},
			{"visitors", 30}, // max(25, 30), never the sum
			{"data_volume", 4096},
		} {
			points := singleSeriesPoints(t, r, GlobalKey, tc.metric)
			if assert.Len(t, points, 1) {
				_, value := pointValue(t, points[0])
				assert.Equal(t, tc.want, value, tc.metric)
			}
		}
	})

	t.Run("VisitorsTakeViewSideWhenLarger", func(t *testing.T) {
		doc, err := sjson.Set(usageDeltaDoc, "totals.view.unique_visitors", 99)
		assert.NoError(t, err)

		b2 := NewBuilder(CategoryUsageDelta, nil)
		b2.AddRaw([]byte(doc))
		points := singleSeriesPoints(t, b2.Build(), GlobalKey, "visitors")
		if assert.Len(t, points, 1) {
			_, value := pointValue(t, points[0])
			assert.Equal(t, float64(99), value)
		}
	})

	t.Run("CountryItem", func(t *testing.T) {
		series := r.Series("countries", "views")
		if assert.Len(t, series, 1) {
			assert.Equal(t, "us", series[0]["id"])
			_, value := pointValue(t, series[0]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(12), value)
		}
	})

	t.Run("NoFilePresenceForUsage", func(t *testing.T) {
		assert.NotContains(t, r.Keys(), FilePresenceKey)
	})
}

func TestBuilderUsageSnapshot(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryUsageSnapshot, nil)
	b.AddRaw([]byte(usageSnapshotDoc))
	r := b.Build()

	t.Run("TopSubcountsSplitPerEventKind", func(t *testing.T) {
		keys := r.Keys()
		assert.Contains(t, keys, "countries_by_view")
		assert.Contains(t, keys, "countries_by_download")
		assert.NotContains(t, keys, "countries")

		byView := r.Series("countries_by_view", "views")
		if assert.Len(t, byView, 1) {
			assert.Equal(t, "us", byView[0]["id"])
			_, value := pointValue(t, byView[0]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(150), value)
		}

		byDownload := r.Series("countries_by_download", "downloads")
		if assert.Len(t, byDownload, 1) {
			assert.Equal(t, "de", byDownload[0]["id"])
			_, value := pointValue(t, byDownload[0]["data"].([]map[string]any)[0])
			assert.Equal(t, float64(30), value)
		}
	})

	t.Run("UnifiedSubcountsStayUnified", func(t *testing.T) {
		keys := r.Keys()
		assert.Contains(t, keys, "resource_types")
		assert.NotContains(t, keys, "resource_types_by_view")
	})
}

func TestBuilderDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("MetricAbsentEverywhereProducesNoSeries", func(t *testing.T) {
		doc := `{"period_start": "2024-01-05T00:00:00", "uploaders": 3}`
		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(doc))
		r := b.Build()

		assert.Contains(t, r.Dict()[GlobalKey], "uploaders")
		assert.NotContains(t, r.Dict()[GlobalKey], "records")
		assert.NotContains(t, r.Dict()[GlobalKey], "data_volume")
	})

	t.Run("LateExposureActivatesMetric", func(t *testing.T) {
		first := `{"period_start": "2024-01-05T00:00:00", "uploaders": 3}`
		second := `{"period_start": "2024-01-06T00:00:00", "uploaders": 1, "records": {"added": {"with_files": 2}, "removed": {}}}`

		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(first))
		b.AddRaw([]byte(second))
		r := b.Build()

		uploaders := singleSeriesPoints(t, r, GlobalKey, "uploaders")
		assert.Len(t, uploaders, 2)

		// records activated at its first exposure; the earlier document had
		// nothing to contribute, so the single point is lossless
		records := singleSeriesPoints(t, r, GlobalKey, "records")
		if assert.Len(t, records, 1) {
			date, value := pointValue(t, records[0])
			assert.Equal(t, "2024-01-06", date)
			assert.Equal(t, float64(2), value)
		}
	})

	t.Run("ItemsKeepFirstSeenOrder", func(t *testing.T) {
		first, err := sjson.Set(recordDeltaDoc, "period_start", "2024-01-05T00:00:00")
		assert.NoError(t, err)
		second, err := sjson.Set(recordDeltaDoc, "period_start", "2024-01-06T00:00:00")
		assert.NoError(t, err)
		second, err = sjson.Set(second, "subcounts.resource_types.0.id", "software")
		assert.NoError(t, err)
		second, err = sjson.Set(second, "subcounts.resource_types.1", map[string]any{
			"id":      "dataset",
			"records": map[string]any{"added": map[string]any{"with_files": 1}},
		})
		assert.NoError(t, err)

		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(first))
		b.AddRaw([]byte(second))
		series := b.Build().Series("resource_types", "records")

		if assert.Len(t, series, 2) {
			assert.Equal(t, "dataset", series[0]["id"])
			assert.Equal(t, "software", series[1]["id"])
			assert.Len(t, series[0]["data"], 2)
			assert.Len(t, series[1]["data"], 1)
		}
	})

	t.Run("MetricExposedOnlyByLaterItemActivates", func(t *testing.T) {
		doc := `{
			"period_start": "2024-02-01T00:00:00",
			"subcounts": {
				"countries": [
					{"id": "us", "download": {"total_events": 3}},
					{"id": "de", "view": {"total_events": 7}}
				]
			}
		}`

		b := NewBuilder(CategoryUsageDelta, nil)
		b.AddRaw([]byte(doc))
		r := b.Build()

		views := r.Series("countries", "views")
		if assert.Len(t, views, 2) {
			assert.Equal(t, "de", views[1]["id"])
			points := views[1]["data"].([]map[string]any)
			if assert.Len(t, points, 1) {
				_, value := pointValue(t, points[0])
				assert.Equal(t, float64(7), value)
			}
		}

		downloads := r.Series("countries", "downloads")
		if assert.Len(t, downloads, 2) {
			points := downloads[0]["data"].([]map[string]any)
			if assert.Len(t, points, 1) {
				_, value := pointValue(t, points[0])
				assert.Equal(t, float64(3), value)
			}
		}
	})

	t.Run("ItemsWithoutIDAreSkipped", func(t *testing.T) {
		doc, err := sjson.Set(recordDeltaDoc, "subcounts.resource_types.0.id", "")
		assert.NoError(t, err)

		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(doc))
		assert.Empty(t, b.Build().Series("resource_types", "records"))
	})

	t.Run("DocumentWithoutDateIsSkipped", func(t *testing.T) {
		doc, err := sjson.Delete(recordDeltaDoc, "period_start")
		assert.NoError(t, err)

		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(doc))
		assert.Zero(t, b.DocumentsProcessed())
		assert.Zero(t, b.DaysProcessed())
	})
}

func TestBuilderCounters(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryRecordDelta, nil)
	assert.Equal(t, 60, b.SeriesSlotCount()) // 12 keys x 5 registry metrics

	b.AddRaw([]byte(recordDeltaDoc))
	sameDay, err := sjson.Set(recordDeltaDoc, "uploaders", 1)
	assert.NoError(t, err)
	b.AddRaw([]byte(sameDay))
	nextDay, err := sjson.Set(recordDeltaDoc, "period_start", "2024-01-06T00:00:00")
	assert.NoError(t, err)
	b.AddRaw([]byte(nextDay))

	assert.Equal(t, 3, b.DocumentsProcessed())
	assert.Equal(t, 2, b.DaysProcessed())
}

func TestBuilderFinalization(t *testing.T) {
	t.Parallel()

	t.Run("BuildIsIdempotent", func(t *testing.T) {
		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(recordDeltaDoc))

		first := b.Build()
		assert.Same(t, first, b.Build())
	})

	t.Run("AddAfterBuildIsIgnored", func(t *testing.T) {
		b := NewBuilder(CategoryRecordDelta, nil)
		b.AddRaw([]byte(recordDeltaDoc))
		r := b.Build()
		points := len(singleSeriesPoints(t, r, GlobalKey, "records"))

		b.AddRaw([]byte(recordDeltaDoc))
		assert.Equal(t, 1, b.DocumentsProcessed())
		assert.Same(t, r, b.Build())
		assert.Len(t, singleSeriesPoints(t, r, GlobalKey, "records"), points)
	})

	t.Run("EmptyBuilderKeepsKeyStructure", func(t *testing.T) {
		b := NewBuilder(CategoryUsageDelta, nil)
		r := b.Build()

		assert.Equal(t, []string{
			GlobalKey,
			"resource_types", "access_statuses", "languages",
			"subjects", "publishers", "rights",
			"file_types", "countries", "referrers",
		}, r.Keys())
		for _, key := range r.Keys() {
			assert.Empty(t, r.Dict()[key])
		}
	})

	t.Run("RecordKeysEndWithFilePresence", func(t *testing.T) {
		keys := NewBuilder(CategoryRecordSnapshot, nil).Build().Keys()
		assert.Equal(t, GlobalKey, keys[0])
		assert.Equal(t, FilePresenceKey, keys[len(keys)-1])
		assert.NotContains(t, keys, "countries")
		assert.NotContains(t, keys, "referrers")
	})
}

func TestSeriesDoNotAliasSourceBuffer(t *testing.T) {
	t.Parallel()

	src := []byte(recordDeltaDoc)
	b := NewBuilder(CategoryRecordDelta, nil)
	b.AddRaw(src)

	// the caller reuses or drops the page buffer after adding
	for i := range src {
		src[i] = 'x'
	}

	series := b.Build().Series("resource_types", "records")
	if assert.Len(t, series, 1) {
		assert.Equal(t, "dataset", series[0]["id"])
		assert.Equal(t, map[string]any{"en": "Dataset"}, series[0]["name"])
		points := series[0]["data"].([]map[string]any)
		if assert.Len(t, points, 1) {
			date, _ := pointValue(t, points[0])
			assert.Equal(t, "2024-01-05", date)
		}
	}
}

func TestResultForJSON(t *testing.T) {
	t.Parallel()

	b := NewBuilder(CategoryRecordDelta, nil)
	b.AddRaw([]byte(recordDeltaDoc))
	out := b.Build().ForJSON()

	assert.Contains(t, out, "resourceTypes")
	assert.Contains(t, out, "filePresence")
	assert.NotContains(t, out, "resource_types")

	global, ok := out["global"].(map[string]any)
	if assert.True(t, ok) {
		assert.Contains(t, global, "fileCount")
		assert.Contains(t, global, "dataVolume")
		assert.NotContains(t, global, "data_volume")
	}
}

func TestToCamel(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want string
	}{
		{"resource_types", "resourceTypes"},
		{"file_presence", "filePresence"},
		{"countries_by_view", "countriesByView"},
		{"global", "global"},
		{"Data_Volume", "dataVolume"},
		{"double__under", "doubleUnder"},
		{"trailing_", "trailing"},
		{"", ""},
	} {
		assert.Equal(t, tc.want, ToCamel(tc.in), tc.in)
	}
}
