package service

import (
	"context"
	"time"

	"github.com/ahmetb/go-linq/v3"
	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/app/appconfig"
	"github.com/invenio-contrib/statsdash/internal/model"
	"github.com/invenio-contrib/statsdash/internal/model/cache"
	"github.com/invenio-contrib/statsdash/internal/pkg/dataseries"
	"github.com/invenio-contrib/statsdash/internal/pkg/memest"
	"github.com/invenio-contrib/statsdash/internal/pkg/observability"
	"github.com/invenio-contrib/statsdash/internal/pkg/sysmem"
	"github.com/invenio-contrib/statsdash/internal/repo"
)

// maxPagesPerWalk is a hard ceiling on pages per build. Hitting it means the
// page size collapsed to the floor on a pathological dataset; the build stops
// with whatever was accumulated instead of walking forever.
const maxPagesPerWalk = 10000

type DataSeries struct {
	Config           *appconfig.Config
	AggregationRepo  *repo.Aggregation
	CommunityService *Community

	meter memest.Meter
}

func NewDataSeries(conf *appconfig.Config, aggregationRepo *repo.Aggregation, communityService *Community) *DataSeries {
	return &DataSeries{
		Config:           conf,
		AggregationRepo:  aggregationRepo,
		CommunityService: communityService,
		meter:            sysmem.NewMeter(),
	}
}

// Cache: dataSeries#community|category|start|end, TTL from config, records last modified time
// The returned key addresses the LastModifiedTime entry of the payload.
func (s *DataSeries) GetSeriesJSON(ctx context.Context, communityID string, category dataseries.Category, start, end null.String) (json.RawMessage, string, error) {
	start, end = s.CommunityService.ResolveDateRange(ctx, communityID, start, end)
	key := communityID + "|" + string(category) + "|" + start.ValueOrZero() + "|" + end.ValueOrZero()

	valueFunc := func() (json.RawMessage, error) {
		result, err := s.BuildSeries(ctx, communityID, category, start, end)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result.ForJSON())
	}

	var payload json.RawMessage
	calculated, err := cache.DataSeries.MutexGetSet(key, &payload, valueFunc, s.Config.SeriesCacheTTL)
	if err != nil {
		return nil, "", err
	} else if calculated {
		cache.LastModifiedTime.Set("[dataSeries#"+key+"]", time.Now(), 0)
	}
	return payload, "[dataSeries#" + key + "]", nil
}

// BuildSeries walks the aggregation documents of one community and category
// in keyset order and folds them into series, shrinking the page size along
// the way whenever the memory projection runs over budget. A failing page
// fetch ends the walk early; whatever was accumulated still becomes the
// result.
func (s *DataSeries) BuildSeries(ctx context.Context, communityID string, category dataseries.Category, start, end null.String) (*dataseries.Result, error) {
	timer := prometheus.NewTimer(observability.SeriesBuildDuration.WithLabelValues(string(category)))
	defer timer.ObserveDuration()

	query := repo.AggregationQuery{
		CommunityID: communityID,
		Category:    category,
		StartDate:   start,
		EndDate:     end,
	}

	builder := dataseries.NewBuilder(category, nil)
	est := memest.New(s.estimatorConfig(), s.meter, memest.Query{
		SeriesSlots:     builder.SeriesSlotCount(),
		InitialPageSize: s.Config.EstimatorInitialPageSize,
		TotalCount:      s.countDocuments(ctx, query),
		SampleDocBytes:  s.sampleDocumentBytes(ctx, query),
	})

	var cursor *repo.PageCursor
	for page := 0; ; page++ {
		if page >= maxPagesPerWalk {
			log.Error().
				Str("community", communityID).
				Str("category", string(category)).
				Int("pages", page).
				Msg("series build hit the page ceiling, returning partial result")
			break
		}

		size := est.PageSize()
		observability.SeriesPageSize.WithLabelValues(string(category)).Set(float64(size))

		docs, next, err := s.fetchPageWithRetry(ctx, query, size, cursor)
		if err != nil {
			log.Warn().Err(err).
				Str("community", communityID).
				Str("category", string(category)).
				Int("page", page).
				Msg("page fetch failed after retries, returning partial result")
			break
		}
		if len(docs) == 0 {
			break
		}
		observability.SeriesPagesFetched.WithLabelValues(string(category)).Inc()

		for _, doc := range docs {
			builder.AddRaw(doc.Source)
		}
		est.ObservePageHeld(len(docs))

		// drop page references before releasing so the post-GC reading
		// reflects reclaimed documents
		docs = nil
		_ = docs
		cursor = next

		est.ReleasePage(builder.DaysProcessed())
		if est.AdjustPageSize(builder.DaysProcessed()) < size {
			observability.SeriesBudgetShrinks.WithLabelValues(string(category)).Inc()
		}

		if cursor == nil {
			break
		}
	}

	return builder.Build(), nil
}

// TopSeries returns the n series of one (subcount, metric) slice ranked by
// the value of their latest datapoint.
func (s *DataSeries) TopSeries(result *dataseries.Result, subcount, metric string, n int) []map[string]any {
	series := result.Series(subcount, metric)
	if series == nil || n <= 0 {
		return nil
	}

	top := make([]map[string]any, 0, n)
	linq.From(series).
		OrderByDescendingT(func(s map[string]any) float64 {
			return lastPointValue(s)
		}).
		Take(n).
		ToSlice(&top)
	return top
}

func lastPointValue(series map[string]any) float64 {
	data, ok := series["data"].([]map[string]any)
	if !ok || len(data) == 0 {
		return 0
	}
	value, ok := data[len(data)-1]["value"].([]any)
	if !ok || len(value) < 2 {
		return 0
	}
	v, _ := value[1].(float64)
	return v
}

func (s *DataSeries) countDocuments(ctx context.Context, query repo.AggregationQuery) int64 {
	count, err := s.AggregationRepo.Count(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("aggregation count unavailable, growth projection falls back to page-relative estimate")
		return -1
	}
	return int64(count)
}

func (s *DataSeries) sampleDocumentBytes(ctx context.Context, query repo.AggregationQuery) int64 {
	sample, err := s.AggregationRepo.FetchSample(ctx, query)
	if err != nil {
		return 0
	}
	return int64(len(sample.Source))
}

func (s *DataSeries) fetchPageWithRetry(ctx context.Context, query repo.AggregationQuery, size int, cursor *repo.PageCursor) ([]*model.StatAggregation, *repo.PageCursor, error) {
	var docs []*model.StatAggregation
	var next *repo.PageCursor
	err := retry.Do(func() error {
		var err error
		docs, next, err = s.AggregationRepo.FetchPage(ctx, query, size, cursor)
		return err
	}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return nil, nil, err
	}
	return docs, next, nil
}

func (s *DataSeries) estimatorConfig() memest.Config {
	return memest.Config{
		PageOverheadFactor:   s.Config.EstimatorPageOverheadFactor,
		SeriesOverheadFactor: s.Config.EstimatorSeriesOverheadFactor,
		InMemoryMultiplier:   s.Config.EstimatorInMemoryMultiplier,
		BytesPerDataPoint:    s.Config.EstimatorBytesPerDataPoint,
		AvgDocBytes:          s.Config.EstimatorAvgDocBytes,
		PageSizeMin:          s.Config.EstimatorPageSizeMin,
		PageSizeMax:          s.Config.EstimatorPageSizeMax,
		BudgetBytes:          s.Config.EstimatorMemoryBudgetBytes,
		HighWaterFraction:    s.Config.EstimatorHighWaterFraction,
	}
}
