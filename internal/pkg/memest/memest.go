// Package memest sizes document-store pages against a memory budget.
//
// An Estimator starts from configured per-document and per-datapoint cost
// guesses, calibrates them once against real memory measurements taken
// around releasing the first page, and thereafter shrinks the page size
// whenever the projected peak (current usage + next page + remaining series
// growth) would exceed the budget. All measurement goes through the Meter
// interface so the arithmetic is testable without real memory pressure.
package memest

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Meter abstracts process-memory introspection. Production uses
// sysmem.Meter; tests inject deterministic readings.
type Meter interface {
	ProcessBytes() (int64, error)
	TotalSystemBytes() (int64, error)
	ForceGC()
}

// Config carries the operator-tunable estimation constants. Zero fields
// take defaults; no physics is hard-coded in the estimator itself.
type Config struct {
	// PageOverheadFactor scales raw document bytes for per-page container
	// overhead.
	PageOverheadFactor float64

	// SeriesOverheadFactor scales datapoint bytes for per-series container
	// overhead.
	SeriesOverheadFactor float64

	// InMemoryMultiplier converts serialized sizes to in-memory footprint.
	InMemoryMultiplier float64

	// BytesPerDataPoint is the serialized size assumed per accumulated
	// datapoint.
	BytesPerDataPoint int64

	// AvgDocBytes is the fallback document size when no sample document
	// could be measured.
	AvgDocBytes int64

	// PageSizeMin and PageSizeMax bound every page size this estimator
	// returns.
	PageSizeMin int
	PageSizeMax int

	// BudgetBytes fixes the memory budget explicitly. When zero, the budget
	// is HighWaterFraction of total system memory.
	BudgetBytes int64

	// HighWaterFraction of total system memory used when BudgetBytes is
	// unset.
	HighWaterFraction float64
}

// DefaultBudgetBytes is used when neither an explicit budget nor system
// memory introspection is available.
const DefaultBudgetBytes = 1 << 30

func (c Config) withDefaults() Config {
	if c.PageOverheadFactor <= 0 {
		c.PageOverheadFactor = 1.2
	}
	if c.SeriesOverheadFactor <= 0 {
		c.SeriesOverheadFactor = 1.1
	}
	if c.InMemoryMultiplier <= 0 {
		c.InMemoryMultiplier = 2.5
	}
	if c.BytesPerDataPoint <= 0 {
		c.BytesPerDataPoint = 160
	}
	if c.AvgDocBytes <= 0 {
		c.AvgDocBytes = 4096
	}
	if c.PageSizeMin <= 0 {
		c.PageSizeMin = 100
	}
	if c.PageSizeMax <= 0 {
		c.PageSizeMax = 10000
	}
	if c.HighWaterFraction <= 0 || c.HighWaterFraction > 1 {
		c.HighWaterFraction = 0.75
	}
	return c
}

// Query describes one paginated query to size pages for.
type Query struct {
	// SeriesSlots is the number of (subcount, metric) series combinations
	// the query can populate.
	SeriesSlots int

	// InitialPageSize before any adjustment.
	InitialPageSize int

	// TotalCount of matching documents, or -1 when unknown.
	TotalCount int64

	// SampleDocBytes is the serialized size of one real matching document,
	// or 0 when none could be fetched.
	SampleDocBytes int64
}

// Estimator is process-local and ephemeral: one instance per paginated
// query, confined to that query's goroutine.
type Estimator struct {
	cfg   Config
	meter Meter

	pageSize          int
	bytesPerDoc       float64
	seriesBytesPerDay float64
	budget            int64

	totalCount    int64
	docsProcessed int64

	initialRSS int64
	lastRSS    int64

	// first-page calibration state
	heldRSS    int64
	heldLen    int
	calibrated bool
}

func New(cfg Config, meter Meter, q Query) *Estimator {
	cfg = cfg.withDefaults()

	sample := q.SampleDocBytes
	if sample <= 0 {
		sample = cfg.AvgDocBytes
	}

	e := &Estimator{
		cfg:               cfg,
		meter:             meter,
		bytesPerDoc:       float64(sample) * cfg.PageOverheadFactor * cfg.InMemoryMultiplier,
		seriesBytesPerDay: float64(q.SeriesSlots) * float64(cfg.BytesPerDataPoint) * cfg.SeriesOverheadFactor * cfg.InMemoryMultiplier,
		totalCount:        q.TotalCount,
	}

	e.budget = cfg.BudgetBytes
	if e.budget <= 0 {
		total, err := meter.TotalSystemBytes()
		if err != nil {
			log.Warn().Err(err).Msg("memest: system memory unavailable, using default budget")
			e.budget = DefaultBudgetBytes
		} else {
			e.budget = int64(float64(total) * cfg.HighWaterFraction)
		}
	}

	if rss, err := meter.ProcessBytes(); err == nil {
		e.initialRSS = rss
		e.lastRSS = rss
	} else {
		log.Warn().Err(err).Msg("memest: process memory unavailable, estimates stay uncalibrated")
	}

	e.pageSize = clampInt(q.InitialPageSize, cfg.PageSizeMin, cfg.PageSizeMax)

	// pre-flight: shrink before fetching anything if the projection is
	// already over budget
	e.AdjustPageSize(0)

	return e
}

// PageSize returns the size to request for the next page.
func (e *Estimator) PageSize() int {
	return e.pageSize
}

// Budget returns the effective budget in bytes.
func (e *Estimator) Budget() int64 {
	return e.budget
}

// Calibrated reports whether the first-page calibration has run.
func (e *Estimator) Calibrated() bool {
	return e.calibrated
}

// ObservePageHeld must be called while the fetched page is still referenced.
// Before calibration it records the memory reading with the page resident;
// it always advances the processed-document count.
func (e *Estimator) ObservePageHeld(pageLen int) {
	e.docsProcessed += int64(pageLen)
	if e.calibrated {
		return
	}
	if rss, err := e.meter.ProcessBytes(); err == nil {
		e.heldRSS = rss
		e.heldLen = pageLen
	}
}

// ReleasePage must be called after the caller has dropped every reference
// to the page's documents. It forces a collection so the follow-up reading
// reflects reclaimed memory, then calibrates the cost model once, after the
// first page only.
func (e *Estimator) ReleasePage(daysProcessed int) {
	e.meter.ForceGC()
	rss, err := e.meter.ProcessBytes()
	if err != nil {
		return
	}
	e.lastRSS = rss

	if e.calibrated || e.heldLen == 0 {
		return
	}
	e.calibrated = true

	measuredPage := e.heldRSS - rss
	measuredSeries := rss - e.initialRSS

	if daysProcessed > 0 && measuredSeries > 0 {
		perDay := float64(measuredSeries) / float64(daysProcessed)
		// never lower the prior estimate: one cheap first day must not make
		// the projection optimistic for the rest of the query
		if perDay > e.seriesBytesPerDay {
			e.seriesBytesPerDay = perDay
		}
	}
	if measuredPage > 0 {
		e.bytesPerDoc = float64(measuredPage) / float64(e.heldLen)
	}

	log.Debug().
		Int64("measuredPageBytes", measuredPage).
		Int64("measuredSeriesBytes", measuredSeries).
		Float64("bytesPerDoc", e.bytesPerDoc).
		Float64("seriesBytesPerDay", e.seriesBytesPerDay).
		Msg("memest: calibrated from first page")
}

// AdjustPageSize recomputes the page size from the projected peak memory
// and returns it. Within budget the size is unchanged. Over budget, two
// shrink heuristics compete: a linear cap (free/needed ratio applied
// directly) and a sqrt scale. Pure linear scaling overshoots into page sizes
// too small to make progress; pure sqrt under-shrinks when deeply over
// budget. Taking the smaller of the two, clamped to the configured bounds,
// gets safety from the linear term and stability from the sqrt term.
func (e *Estimator) AdjustPageSize(daysProcessed int) int {
	rss := e.lastRSS

	perPage := float64(e.pageSize) * e.bytesPerDoc

	var growth float64
	if e.totalCount >= 0 {
		remaining := e.totalCount - e.docsProcessed
		if remaining < 0 {
			remaining = 0
		}
		growth = e.seriesBytesPerDay * float64(remaining)
	} else {
		// unknown total: assume roughly another current page worth of days
		growth = e.seriesBytesPerDay * float64(daysProcessed+e.pageSize)
	}

	needed := perPage + growth
	if float64(rss)+needed <= float64(e.budget) {
		return e.pageSize
	}

	adjusted := e.cfg.PageSizeMin
	free := float64(e.budget) - float64(rss)
	if free > 0 && needed > 0 {
		ratio := free / needed
		linearCap := int(float64(e.pageSize) * ratio)
		if linearCap < e.cfg.PageSizeMin {
			linearCap = e.cfg.PageSizeMin
		}
		adjusted = int(float64(e.pageSize) * math.Sqrt(ratio))
		if linearCap < adjusted {
			adjusted = linearCap
		}
		adjusted = clampInt(adjusted, e.cfg.PageSizeMin, e.cfg.PageSizeMax)
	}
	// over budget must shrink whenever the floor still allows it
	if adjusted >= e.pageSize && e.pageSize > e.cfg.PageSizeMin {
		adjusted = e.pageSize - 1
	}

	if adjusted != e.pageSize {
		log.Debug().
			Int("from", e.pageSize).
			Int("to", adjusted).
			Int64("rss", rss).
			Int64("budget", e.budget).
			Msg("memest: page size adjusted")
		e.pageSize = adjusted
	}
	return e.pageSize
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
