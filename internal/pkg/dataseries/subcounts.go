package dataseries

const SnapshotTypeTop = "top"

// SubcountDef configures one breakdown dimension: which document categories
// it applies to, where its item array lives under subcounts, and whether
// usage snapshots keep it as separate top-N by_view/by_download arrays
// instead of one unified array.
type SubcountDef struct {
	Key          string
	Field        string // path segment under "subcounts"; defaults to Key
	Records      bool
	Usage        bool
	SnapshotType string
}

func (d SubcountDef) field() string {
	if d.Field != "" {
		return d.Field
	}
	return d.Key
}

func (d SubcountDef) appliesTo(c Category) bool {
	if c.IsUsage() {
		return d.Usage
	}
	return d.Records
}

// DefaultSubcounts mirrors the aggregator's subcount configuration. The
// order here fixes the subcount key order of every built result.
func DefaultSubcounts() []SubcountDef {
	return []SubcountDef{
		{Key: "resource_types", Records: true, Usage: true},
		{Key: "access_statuses", Records: true, Usage: true},
		{Key: "languages", Records: true, Usage: true},
		{Key: "subjects", Records: true, Usage: true, SnapshotType: SnapshotTypeTop},
		{Key: "publishers", Records: true, Usage: true, SnapshotType: SnapshotTypeTop},
		{Key: "rights", Records: true, Usage: true, SnapshotType: SnapshotTypeTop},
		{Key: "funders", Records: true},
		{Key: "affiliations", Records: true},
		{Key: "periodicals", Records: true},
		{Key: "file_types", Records: true, Usage: true},
		{Key: "countries", Usage: true, SnapshotType: SnapshotTypeTop},
		{Key: "referrers", Usage: true, SnapshotType: SnapshotTypeTop},
	}
}
