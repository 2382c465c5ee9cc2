package model

import (
	"github.com/goccy/go-json"
	"github.com/uptrace/bun"
)

// StatAggregation is one daily aggregation document for one community. The
// analytical payload lives in Source; the typed columns exist for querying
// and keyset pagination only.
type StatAggregation struct {
	bun.BaseModel `bun:"table:stat_aggregations,alias:sa" json:"-"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	CommunityID string `bun:"community_id,notnull" json:"communityId"`
	Category    string `bun:"category,notnull" json:"category"`

	// AggDate is the document's bucket day as YYYY-MM-DD. Stored as text so
	// the (agg_date, id) sort key matches the string cursor exactly.
	AggDate string `bun:"agg_date,notnull" json:"aggDate"`

	Source json.RawMessage `bun:"source,type:jsonb" json:"source"`
}
