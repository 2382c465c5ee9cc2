package dataseries

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// GlobalKey is the series key of the document-wide (non-subcount) slice.
const GlobalKey = "global"

// FilePresenceKey is the special subcount splitting record metrics by
// whether records carry files.
const FilePresenceKey = "file_presence"

type keyKind int

const (
	kindGlobal keyKind = iota
	kindItems
	kindPresence
)

type seriesKey struct {
	key  string
	kind keyKind
	path string // item-array path for kindItems
}

// Builder accumulates aggregation documents of one category and finalizes
// them into a Result. It is not safe for concurrent use; confine one builder
// to one paginated-query execution. All Add calls must happen before Build.
type Builder struct {
	category  Category
	chartType string
	registry  []Metric
	keys      []seriesKey

	// metric activation is data-driven: a registry metric only gets series
	// once some document exposes its source field.
	active    []Metric
	activeSet map[string]bool

	// arrays[key.key][metric.Key]; nil entries mark combinations that do not
	// exist (e.g. file_presence only carries presence-capable metrics).
	arrays map[string]map[string]seriesArray

	dates  map[string]struct{}
	docs   int
	result *Result
}

// NewBuilder creates a builder for one document category. A nil subcounts
// slice uses DefaultSubcounts. The subcount key order is fixed here; metrics
// are discovered from the documents themselves.
func NewBuilder(category Category, subcounts []SubcountDef) *Builder {
	if subcounts == nil {
		subcounts = DefaultSubcounts()
	}
	b := &Builder{
		category:  category,
		chartType: category.ChartType(),
		registry:  metricsFor(category),
		activeSet: make(map[string]bool),
		arrays:    make(map[string]map[string]seriesArray),
		dates:     make(map[string]struct{}),
	}

	b.keys = append(b.keys, seriesKey{key: GlobalKey, kind: kindGlobal})
	for _, def := range subcounts {
		if !def.appliesTo(category) {
			continue
		}
		if category == CategoryUsageSnapshot && def.SnapshotType == SnapshotTypeTop {
			// top-N subcounts keep separate ranked arrays per event kind
			b.keys = append(b.keys,
				seriesKey{key: def.Key + "_by_view", kind: kindItems, path: "subcounts." + def.field() + ".by_view"},
				seriesKey{key: def.Key + "_by_download", kind: kindItems, path: "subcounts." + def.field() + ".by_download"},
			)
			continue
		}
		b.keys = append(b.keys, seriesKey{key: def.Key, kind: kindItems, path: "subcounts." + def.field()})
	}
	if !category.IsUsage() {
		b.keys = append(b.keys, seriesKey{key: FilePresenceKey, kind: kindPresence})
	}

	for _, k := range b.keys {
		b.arrays[k.key] = make(map[string]seriesArray)
	}
	return b
}

// AddRaw parses src and adds it. See Add.
func (b *Builder) AddRaw(src []byte) {
	b.Add(ParseDocument(src))
}

// Add streams one document into every series array. Documents lacking the
// category's date field are skipped silently. Calls after Build are ignored.
func (b *Builder) Add(doc Document) {
	if b.result != nil {
		log.Debug().Str("category", string(b.category)).Msg("dataseries: add after build ignored")
		return
	}
	date, ok := doc.Date(b.category.DateField())
	if !ok {
		return
	}

	b.discover(doc)

	for _, k := range b.keys {
		for _, m := range b.active {
			if arr := b.arrays[k.key][m.Key]; arr != nil {
				arr.Add(doc, date)
			}
		}
	}

	b.dates[date] = struct{}{}
	b.docs++
}

// discover activates registry metrics the document exposes. Activation at
// first exposure is lossless: earlier documents did not carry the field, so
// they would not have produced points anyway.
func (b *Builder) discover(doc Document) {
	for _, m := range b.registry {
		if b.activeSet[m.Key] {
			continue
		}
		if !b.exposes(doc, m) {
			continue
		}
		b.activeSet[m.Key] = true
		b.active = append(b.active, m)
		for _, k := range b.keys {
			b.arrays[k.key][m.Key] = b.newArray(k, m)
		}
	}
}

func (b *Builder) exposes(doc Document, m Metric) bool {
	if _, ok := m.Global(doc); ok {
		return true
	}
	if m.Presence != nil {
		for _, p := range filePresences {
			if _, ok := m.Presence(doc, p); ok {
				return true
			}
		}
	}
	for _, k := range b.keys {
		if k.kind != kindItems {
			continue
		}
		arr := doc.Get(k.path)
		if !arr.IsArray() {
			continue
		}
		// items of one array expose different field subsets, so every item
		// counts for discovery, not just the first
		exposed := false
		arr.ForEach(func(_, item gjson.Result) bool {
			if _, ok := m.Item(item); ok {
				exposed = true
				return false
			}
			return true
		})
		if exposed {
			return true
		}
	}
	return false
}

func (b *Builder) newArray(k seriesKey, m Metric) seriesArray {
	switch k.kind {
	case kindGlobal:
		return newGlobalArray(m, b.chartType)
	case kindItems:
		return newItemArray(k.path, m, b.chartType)
	case kindPresence:
		if m.Presence == nil {
			return nil
		}
		return newPresenceArray(m, b.chartType)
	}
	return nil
}

// DaysProcessed reports the number of distinct bucket dates seen so far,
// which drives the memory estimator's series-growth projection.
func (b *Builder) DaysProcessed() int {
	return len(b.dates)
}

// DocumentsProcessed reports the number of documents accepted so far.
func (b *Builder) DocumentsProcessed() int {
	return b.docs
}

// SeriesSlotCount is the upper bound of (subcount, metric) combinations this
// builder can populate; the memory estimator sizes its projections from it.
func (b *Builder) SeriesSlotCount() int {
	return len(b.keys) * len(b.registry)
}

// Build finalizes the builder into an immutable Result. The first call
// computes; repeat calls return the same Result, and later Add calls no
// longer mutate it.
func (b *Builder) Build() *Result {
	if b.result != nil {
		return b.result
	}
	data := make(map[string]map[string][]map[string]any, len(b.keys))
	for _, k := range b.keys {
		metrics := make(map[string][]map[string]any)
		for _, m := range b.active {
			if arr := b.arrays[k.key][m.Key]; arr != nil {
				metrics[m.Key] = arr.Dicts()
			}
		}
		data[k.key] = metrics
	}
	b.result = &Result{
		category: b.category,
		keyOrder: lo.Map(b.keys, func(k seriesKey, _ int) string { return k.key }),
		data:     data,
	}
	return b.result
}

// Result is a finalized series set. It is immutable; rebuilding requires a
// fresh Builder.
type Result struct {
	category Category
	keyOrder []string
	data     map[string]map[string][]map[string]any
}

func (r *Result) Category() Category {
	return r.category
}

// Keys returns the subcount keys in their configured order.
func (r *Result) Keys() []string {
	return append([]string(nil), r.keyOrder...)
}

// Dict returns the nested structure with snake_case keys.
func (r *Result) Dict() map[string]map[string][]map[string]any {
	return r.data
}

// Series returns the series dicts of one (subcount, metric) slice, or nil.
func (r *Result) Series(subcount, metric string) []map[string]any {
	metrics, ok := r.data[subcount]
	if !ok {
		return nil
	}
	return metrics[metric]
}

// ForJSON returns the wire structure with every subcount and metric key
// converted to camelCase.
func (r *Result) ForJSON() map[string]any {
	out := make(map[string]any, len(r.data))
	for key, metrics := range r.data {
		converted := make(map[string]any, len(metrics))
		for mk, series := range metrics {
			converted[ToCamel(mk)] = series
		}
		out[ToCamel(key)] = converted
	}
	return out
}

// ToCamel converts a snake_case key to camelCase: split on underscores,
// lowercase the first segment, capitalize the first letter of the rest. The
// exact algorithm is a compatibility contract with the chart frontend.
func ToCamel(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	sb.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
