package repo

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/invenio-contrib/statsdash/internal/constant"
	"github.com/invenio-contrib/statsdash/internal/model"
	"github.com/invenio-contrib/statsdash/internal/pkg/apierr"
)

type CommunityEvent struct {
	DB *bun.DB
}

func NewCommunityEvent(db *bun.DB) *CommunityEvent {
	return &CommunityEvent{DB: db}
}

// GetCommunitySpan returns the first and last event dates of a community.
// Returns ErrNotFound when the community has no events at all.
func (r *CommunityEvent) GetCommunitySpan(ctx context.Context, communityID string) (*model.CommunitySpan, error) {
	var first, last sql.NullTime
	err := r.DB.NewSelect().
		Model((*model.CommunityEvent)(nil)).
		ColumnExpr("MIN(ce.event_date)").
		ColumnExpr("MAX(ce.event_date)").
		Where("ce.community_id = ?", communityID).
		Scan(ctx, &first, &last)
	if err != nil {
		return nil, err
	}
	if !first.Valid || !last.Valid {
		return nil, apierr.ErrNotFound
	}

	return &model.CommunitySpan{
		First: first.Time,
		Last:  last.Time,
	}, nil
}

// GetEventCounts returns how many addition and removal events a community
// has.
func (r *CommunityEvent) GetEventCounts(ctx context.Context, communityID string) (added int, removed int, err error) {
	added, err = r.countByType(ctx, communityID, constant.CommunityEventAdded)
	if err != nil {
		return 0, 0, err
	}
	removed, err = r.countByType(ctx, communityID, constant.CommunityEventRemoved)
	if err != nil {
		return 0, 0, err
	}
	return added, removed, nil
}

func (r *CommunityEvent) countByType(ctx context.Context, communityID, eventType string) (int, error) {
	return r.DB.NewSelect().
		Model((*model.CommunityEvent)(nil)).
		Where("ce.community_id = ?", communityID).
		Where("ce.event_type = ?", eventType).
		Count(ctx)
}
