package repo

import (
	"context"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/constant"
	"github.com/invenio-contrib/statsdash/internal/model"
	"github.com/invenio-contrib/statsdash/internal/pkg/dataseries"
	"github.com/invenio-contrib/statsdash/internal/repo/selector"
)

type Aggregation struct {
	DB  *bun.DB
	sel selector.S[model.StatAggregation]
}

func NewAggregation(db *bun.DB) *Aggregation {
	return &Aggregation{DB: db, sel: selector.New[model.StatAggregation](db)}
}

// AggregationQuery scopes a page walk to one community and category, with an
// optional inclusive date range.
type AggregationQuery struct {
	CommunityID string
	Category    dataseries.Category
	StartDate   null.String
	EndDate     null.String
}

// PageCursor is the keyset position of the last row of a fetched page.
// Ordering is (agg_date, id): agg_date alone is not unique since every
// community shares the same bucket days.
type PageCursor struct {
	Date string
	ID   int64
}

func (r *Aggregation) handleQuery(q *bun.SelectQuery, query AggregationQuery) *bun.SelectQuery {
	communityID := query.CommunityID
	if communityID == "" {
		communityID = constant.GlobalCommunityID
	}
	q = q.Where("sa.community_id = ?", communityID).
		Where("sa.category = ?", string(query.Category))
	if query.StartDate.Valid {
		q = q.Where("sa.agg_date >= ?", query.StartDate.String)
	}
	if query.EndDate.Valid {
		q = q.Where("sa.agg_date <= ?", query.EndDate.String)
	}
	return q
}

// Count returns the total number of documents the query would walk.
func (r *Aggregation) Count(ctx context.Context, query AggregationQuery) (int, error) {
	return r.handleQuery(r.DB.NewSelect().Model((*model.StatAggregation)(nil)), query).
		Count(ctx)
}

// FetchSample returns the first document of the query, used to size the
// average document before walking pages.
func (r *Aggregation) FetchSample(ctx context.Context, query AggregationQuery) (*model.StatAggregation, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return r.handleQuery(q, query).
			Order("agg_date ASC", "id ASC").
			Limit(1)
	})
}

// FetchPage returns up to size documents after the given cursor, together
// with the cursor of the page's last row. A nil cursor starts from the
// beginning; a nil returned cursor means the walk is exhausted.
func (r *Aggregation) FetchPage(ctx context.Context, query AggregationQuery, size int, after *PageCursor) ([]*model.StatAggregation, *PageCursor, error) {
	results, err := r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = r.handleQuery(q, query)
		if after != nil {
			q = q.Where("(sa.agg_date, sa.id) > (?, ?)", after.Date, after.ID)
		}
		return q.
			Order("agg_date ASC", "id ASC").
			Limit(size)
	})
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, nil
	}

	last := results[len(results)-1]
	return results, &PageCursor{Date: last.AggDate, ID: last.ID}, nil
}
