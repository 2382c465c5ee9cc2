package dataseries

import (
	"strings"

	"github.com/tidwall/gjson"
)

// A seriesArray manages the one-or-many Series of one (subcount, metric)
// slice. Arrays grow monotonically while documents stream in and are
// discarded once the owning builder is finalized.
type seriesArray interface {
	Add(d Document, date string)
	Dicts() []map[string]any
}

// globalArray owns exactly one document-wide series.
type globalArray struct {
	metric Metric
	series *Series
}

func newGlobalArray(metric Metric, chartType string) *globalArray {
	return &globalArray{
		metric: metric,
		series: newSeries("global", "Global", chartType, metric.ValueType),
	}
}

func (a *globalArray) Add(d Document, date string) {
	if v, ok := a.metric.Global(d); ok {
		a.series.AddPoint(date, v)
	}
}

// Dicts always wraps the single series in a one-element list so global and
// subcount slices share one wire shape.
func (a *globalArray) Dicts() []map[string]any {
	return []map[string]any{a.series.Dict()}
}

// itemArray owns one series per distinct subcount item id, discovered
// lazily in first-seen order. An item missing from later documents simply
// is not extended that day; consumers treat missing dates as "no data".
type itemArray struct {
	path      string // e.g. "subcounts.access_statuses" or "subcounts.countries.by_view"
	metric    Metric
	chartType string
	order     []*Series
	index     map[string]*Series
}

func newItemArray(path string, metric Metric, chartType string) *itemArray {
	return &itemArray{
		path:      path,
		metric:    metric,
		chartType: chartType,
		index:     make(map[string]*Series),
	}
}

func (a *itemArray) Add(d Document, date string) {
	arr := d.Get(a.path)
	if !arr.IsArray() {
		return
	}
	arr.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if id == "" {
			return true
		}
		s, ok := a.index[id]
		if !ok {
			// clone id and label: gjson strings alias the source document,
			// and a series must not pin a released page
			id = strings.Clone(id)
			s = newSeries(id, labelOf(item), a.chartType, a.metric.ValueType)
			a.index[id] = s
			a.order = append(a.order, s)
		}
		if v, ok := a.metric.Item(item); ok {
			s.AddPoint(date, v)
		}
		return true
	})
}

func (a *itemArray) Dicts() []map[string]any {
	out := make([]map[string]any, 0, len(a.order))
	for _, s := range a.order {
		out = append(out, s.Dict())
	}
	return out
}

// labelOf carries an item label verbatim: multilingual label objects stay
// objects, strings stay strings. Picking one language is the frontend's
// call, not ours. Every string is cloned off the source buffer.
func labelOf(item gjson.Result) any {
	l := item.Get("label")
	switch {
	case !l.Exists():
		return nil
	case l.IsObject():
		label := make(map[string]any)
		l.ForEach(func(k, v gjson.Result) bool {
			label[strings.Clone(k.String())] = strings.Clone(v.String())
			return true
		})
		return label
	case l.Type == gjson.String:
		return strings.Clone(l.String())
	}
	return nil
}

var filePresences = []string{"metadata_only", "with_files"}

var filePresenceLabels = map[string]string{
	"metadata_only": "Metadata Only",
	"with_files":    "With Files",
}

// presenceArray is the file-presence special subcount: its two series do
// not come from a subcounts array but from the metadata_only/with_files
// components of the record fields themselves.
type presenceArray struct {
	metric    Metric
	chartType string
	order     []*Series
	index     map[string]*Series
}

func newPresenceArray(metric Metric, chartType string) *presenceArray {
	return &presenceArray{
		metric:    metric,
		chartType: chartType,
		index:     make(map[string]*Series),
	}
}

func (a *presenceArray) Add(d Document, date string) {
	if a.metric.Presence == nil {
		return
	}
	for _, presence := range filePresences {
		v, ok := a.metric.Presence(d, presence)
		if !ok {
			continue
		}
		s, found := a.index[presence]
		if !found {
			s = newSeries(presence, filePresenceLabels[presence], a.chartType, a.metric.ValueType)
			a.index[presence] = s
			a.order = append(a.order, s)
		}
		s.AddPoint(date, v)
	}
}

func (a *presenceArray) Dicts() []map[string]any {
	out := make([]map[string]any, 0, len(a.order))
	for _, s := range a.order {
		out = append(out, s.Dict())
	}
	return out
}
