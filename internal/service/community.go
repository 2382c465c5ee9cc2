package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/model"
	"github.com/invenio-contrib/statsdash/internal/pkg/apierr"
	"github.com/invenio-contrib/statsdash/internal/pkg/pcache"
	"github.com/invenio-contrib/statsdash/internal/repo"
)

type Community struct {
	CommunityEventRepo *repo.CommunityEvent

	spans *gocache.Cache
}

func NewCommunity(communityEventRepo *repo.CommunityEvent) *Community {
	return &Community{
		CommunityEventRepo: communityEventRepo,
		spans:              pcache.New(),
	}
}

// GetSpan returns the first/last event dates of a community, memoized
// in-process for an hour.
func (s *Community) GetSpan(ctx context.Context, communityID string) (*model.CommunitySpan, error) {
	if cached, ok := s.spans.Get(communityID); ok {
		return cached.(*model.CommunitySpan), nil
	}

	span, err := s.CommunityEventRepo.GetCommunitySpan(ctx, communityID)
	if err != nil {
		return nil, err
	}
	s.spans.Set(communityID, span, time.Hour)

	return span, nil
}

// GetEventStats returns how many records entered and left the community,
// together with the covered date span. A community without events yields
// zero counts and a nil span rather than an error.
func (s *Community) GetEventStats(ctx context.Context, communityID string) (added, removed int, span *model.CommunitySpan, err error) {
	added, removed, err = s.CommunityEventRepo.GetEventCounts(ctx, communityID)
	if err != nil {
		return 0, 0, nil, err
	}

	span, err = s.GetSpan(ctx, communityID)
	if errors.Is(err, apierr.ErrNotFound) {
		return added, removed, nil, nil
	} else if err != nil {
		return 0, 0, nil, err
	}

	return added, removed, span, nil
}

// ResolveDateRange fills missing range bounds from the community's event
// span. When the community has no events the bounds stay unset and the walk
// is unbounded.
func (s *Community) ResolveDateRange(ctx context.Context, communityID string, start, end null.String) (null.String, null.String) {
	if start.Valid && end.Valid {
		return start, end
	}

	span, err := s.GetSpan(ctx, communityID)
	if err != nil {
		return start, end
	}
	if !start.Valid {
		start = null.StringFrom(span.First.Format("2006-01-02"))
	}
	if !end.Valid {
		end = null.StringFrom(span.Last.Format("2006-01-02"))
	}
	return start, end
}
