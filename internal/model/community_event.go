package model

import (
	"time"

	"github.com/uptrace/bun"
)

// CommunityEvent records one record entering or leaving a community. The
// table is maintained by the ingestion side; this backend only reads it to
// resolve which date span a community's statistics cover.
type CommunityEvent struct {
	bun.BaseModel `bun:"table:community_events,alias:ce" json:"-"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	RecordID    string    `bun:"record_id,notnull" json:"recordId"`
	CommunityID string    `bun:"community_id,notnull" json:"communityId"`
	EventType   string    `bun:"event_type,notnull" json:"eventType"`
	EventDate   time.Time `bun:"event_date,notnull" json:"eventDate"`
}

// CommunitySpan is the inclusive date range covered by a community's
// events.
type CommunitySpan struct {
	First time.Time `bun:"first_date" json:"firstDate"`
	Last  time.Time `bun:"last_date" json:"lastDate"`
}
