package dataseries

// Series is one named, time-ordered sequence of values; one line or bar
// group in the final chart. Points are appended in document-arrival order,
// the package never re-sorts.
type Series struct {
	ID        string
	Label     any // string or multilingual {lang: text} object, carried verbatim
	ChartType string
	ValueType ValueType
	Data      []DataPoint
}

func newSeries(id string, label any, chartType string, valueType ValueType) *Series {
	return &Series{
		ID:        id,
		Label:     label,
		ChartType: chartType,
		ValueType: valueType,
		Data:      make([]DataPoint, 0, 32),
	}
}

// AddPoint appends a point carrying the series-level value type.
func (s *Series) AddPoint(date string, value float64) {
	s.AddTypedPoint(date, value, s.ValueType)
}

// AddTypedPoint appends a point with an explicit value type override.
func (s *Series) AddTypedPoint(date string, value float64, valueType ValueType) {
	s.Data = append(s.Data, DataPoint{Date: date, Value: value, ValueType: valueType})
}

// Dict returns the wire representation of the series.
func (s *Series) Dict() map[string]any {
	data := make([]map[string]any, 0, len(s.Data))
	for _, p := range s.Data {
		data = append(data, p.Dict())
	}
	name := s.Label
	if name == nil {
		name = s.ID
	}
	return map[string]any{
		"id":        s.ID,
		"name":      name,
		"data":      data,
		"type":      s.ChartType,
		"valueType": string(s.ValueType),
	}
}
