package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "statsdash"
)

var (
	SeriesBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "series", "build_duration_seconds"),
		Help:    "Duration of a full data-series build in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"category"})
	SeriesPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "series", "pages_fetched_total"),
		Help: "Number of aggregation pages fetched from the database",
	}, []string{"category"})
	SeriesPageSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "series", "page_size"),
		Help: "Current adaptive page size of the series build",
	}, []string{"category"})
	SeriesBudgetShrinks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "series", "budget_shrinks_total"),
		Help: "Number of times the adaptive page size was shrunk to stay within the memory budget",
	}, []string{"category"})
	WorkerCalcDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "calc_duration_seconds"),
		Help: "Duration of last worker calculation in seconds",
	}, []string{"community", "category"})
)
