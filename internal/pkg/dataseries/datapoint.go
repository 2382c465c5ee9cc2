package dataseries

import "time"

type ValueType string

const (
	ValueTypeNumber   ValueType = "number"
	ValueTypeFilesize ValueType = "filesize"
)

// DataPoint is a single (date, value) pair on one series. Immutable once
// created.
type DataPoint struct {
	Date      string
	Value     float64
	ValueType ValueType
}

// ReadableDate renders the point's date for chart tooltips. A date that
// fails to parse is returned verbatim rather than erroring.
func (p DataPoint) ReadableDate() string {
	t, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return p.Date
	}
	return t.Format("January 2, 2006")
}

// Dict returns the wire representation of the point.
func (p DataPoint) Dict() map[string]any {
	return map[string]any{
		"value":        []any{p.Date, p.Value},
		"readableDate": p.ReadableDate(),
		"valueType":    string(p.ValueType),
	}
}
