package memest

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const mb = 1 << 20

// fakeMeter replays a fixed sequence of process readings and repeats the
// last one once exhausted.
type fakeMeter struct {
	readings []int64
	pos      int
	total    int64
	totalErr error
	procErr  error
	gcs      int
}

func (m *fakeMeter) ProcessBytes() (int64, error) {
	if m.procErr != nil {
		return 0, m.procErr
	}
	if len(m.readings) == 0 {
		return 0, nil
	}
	r := m.readings[m.pos]
	if m.pos < len(m.readings)-1 {
		m.pos++
	}
	return r, nil
}

func (m *fakeMeter) TotalSystemBytes() (int64, error) {
	return m.total, m.totalErr
}

func (m *fakeMeter) ForceGC() {
	m.gcs++
}

// flatConfig removes the overhead scaling so projections are exact
// multiples of the configured byte costs.
func flatConfig() Config {
	return Config{
		PageOverheadFactor:   1,
		SeriesOverheadFactor: 1,
		InMemoryMultiplier:   1,
	}
}

func TestBudget(t *testing.T) {
	t.Parallel()

	t.Run("Explicit", func(t *testing.T) {
		cfg := flatConfig()
		cfg.BudgetBytes = 512 * mb
		e := New(cfg, &fakeMeter{readings: []int64{mb}, total: 64 << 30}, Query{InitialPageSize: 1000, TotalCount: 0})
		assert.EqualValues(t, 512*mb, e.Budget())
	})

	t.Run("FractionOfSystemMemory", func(t *testing.T) {
		cfg := flatConfig()
		cfg.HighWaterFraction = 0.5
		e := New(cfg, &fakeMeter{readings: []int64{mb}, total: 8 << 30}, Query{InitialPageSize: 1000, TotalCount: 0})
		assert.EqualValues(t, 4<<30, e.Budget())
	})

	t.Run("DefaultWhenSystemMemoryUnavailable", func(t *testing.T) {
		meter := &fakeMeter{readings: []int64{mb}, totalErr: errors.New("sysinfo failed")}
		e := New(flatConfig(), meter, Query{InitialPageSize: 1000, TotalCount: 0})
		assert.EqualValues(t, DefaultBudgetBytes, e.Budget())
	})
}

func TestPageSizeClamping(t *testing.T) {
	t.Parallel()

	cfg := flatConfig()
	cfg.BudgetBytes = 64 << 30
	meter := &fakeMeter{readings: []int64{mb}}

	assert.Equal(t, 100, New(cfg, meter, Query{InitialPageSize: 5, TotalCount: 0}).PageSize())
	assert.Equal(t, 10000, New(cfg, meter, Query{InitialPageSize: 50000, TotalCount: 0}).PageSize())
	assert.Equal(t, 1000, New(cfg, meter, Query{InitialPageSize: 1000, TotalCount: 0}).PageSize())
}

func TestAdjustWithinBudget(t *testing.T) {
	t.Parallel()

	cfg := flatConfig()
	cfg.BudgetBytes = 1 << 30
	e := New(cfg, &fakeMeter{readings: []int64{100 * mb}}, Query{
		SeriesSlots:     60,
		InitialPageSize: 1000,
		TotalCount:      5000,
		SampleDocBytes:  1000,
	})

	assert.Equal(t, 1000, e.PageSize())
	assert.Equal(t, 1000, e.AdjustPageSize(10))
}

func TestPreflightShrink(t *testing.T) {
	t.Parallel()

	// rss 1MB, budget rss+250KB; one page of 1000 x 1KB docs needs 1MB, so
	// the free/needed ratio is 0.25 before anything is fetched
	cfg := flatConfig()
	cfg.BudgetBytes = mb + 250_000
	e := New(cfg, &fakeMeter{readings: []int64{mb}}, Query{
		InitialPageSize: 1000,
		TotalCount:      0,
		SampleDocBytes:  1000,
	})

	// linear cap 1000*0.25=250 beats the sqrt proposal 1000*0.5=500
	assert.Equal(t, 250, e.PageSize())
}

func TestShrinkFloorsAtMinimum(t *testing.T) {
	t.Parallel()

	t.Run("LinearCapBelowMinimum", func(t *testing.T) {
		cfg := flatConfig()
		cfg.BudgetBytes = mb + 50_000 // ratio 0.05
		e := New(cfg, &fakeMeter{readings: []int64{mb}}, Query{
			InitialPageSize: 1000,
			TotalCount:      0,
			SampleDocBytes:  1000,
		})
		assert.Equal(t, 100, e.PageSize())
	})

	t.Run("OverBudgetAtFloorStaysAtFloor", func(t *testing.T) {
		cfg := flatConfig()
		cfg.BudgetBytes = mb // rss alone exhausts the budget
		e := New(cfg, &fakeMeter{readings: []int64{2 * mb}}, Query{
			InitialPageSize: 100,
			TotalCount:      0,
			SampleDocBytes:  1000,
		})
		assert.Equal(t, 100, e.PageSize())
		assert.Equal(t, 100, e.AdjustPageSize(5))
	})

	t.Run("NoFreeMemoryDropsToFloor", func(t *testing.T) {
		cfg := flatConfig()
		cfg.BudgetBytes = mb
		e := New(cfg, &fakeMeter{readings: []int64{2 * mb}}, Query{
			InitialPageSize: 1000,
			TotalCount:      0,
			SampleDocBytes:  1000,
		})
		assert.Equal(t, 100, e.PageSize())
	})
}

func TestUnknownTotalAssumesGrowth(t *testing.T) {
	t.Parallel()

	cfg := flatConfig()
	cfg.BudgetBytes = 3 * mb
	query := Query{
		SeriesSlots:     100,
		InitialPageSize: 1000,
		SampleDocBytes:  1000,
	}
	meter := func() *fakeMeter { return &fakeMeter{readings: []int64{mb}} }

	// a known-exhausted total projects no series growth and fits
	query.TotalCount = 0
	assert.Equal(t, 1000, New(cfg, meter(), query).PageSize())

	// unknown total projects another page worth of days and must shrink
	query.TotalCount = -1
	assert.Less(t, New(cfg, meter(), query).PageSize(), 1000)
}

func TestRemainingCountShrinksGrowth(t *testing.T) {
	t.Parallel()

	cfg := flatConfig()
	cfg.BudgetBytes = 64 << 30
	e := New(cfg, &fakeMeter{readings: []int64{mb}}, Query{
		SeriesSlots:     100,
		InitialPageSize: 1000,
		TotalCount:      2000,
		SampleDocBytes:  1000,
	})

	e.ObservePageHeld(1500)
	e.ObservePageHeld(1500) // processed past the reported total
	assert.EqualValues(t, 3000, e.docsProcessed)

	// remaining is clamped at zero, never negative growth
	assert.Equal(t, 1000, e.AdjustPageSize(30))
}

func TestCalibration(t *testing.T) {
	t.Parallel()

	newCalibrating := func(readings []int64) (*Estimator, *fakeMeter) {
		cfg := flatConfig()
		cfg.BudgetBytes = 64 << 30
		meter := &fakeMeter{readings: readings}
		e := New(cfg, meter, Query{
			SeriesSlots:     60,
			InitialPageSize: 1000,
			TotalCount:      10000,
			SampleDocBytes:  1000,
		})
		return e, meter
	}

	t.Run("FirstReleaseCalibrates", func(t *testing.T) {
		// initial 100MB, 160MB with the page held, 120MB after release
		e, meter := newCalibrating([]int64{100 * mb, 160 * mb, 120 * mb})
		assert.False(t, e.Calibrated())

		e.ObservePageHeld(500)
		e.ReleasePage(30)

		assert.True(t, e.Calibrated())
		assert.Equal(t, 1, meter.gcs)
		// page cost: (160MB - 120MB) / 500 docs
		assert.InDelta(t, float64(40*mb)/500, e.bytesPerDoc, 1)
		// series cost: (120MB - 100MB) / 30 days
		assert.InDelta(t, float64(20*mb)/30, e.seriesBytesPerDay, 1)
	})

	t.Run("CalibratesOnlyOnce", func(t *testing.T) {
		e, _ := newCalibrating([]int64{100 * mb, 160 * mb, 120 * mb, 500 * mb, 130 * mb})
		e.ObservePageHeld(500)
		e.ReleasePage(30)
		docCost := e.bytesPerDoc

		e.ObservePageHeld(500)
		e.ReleasePage(60)
		assert.Equal(t, docCost, e.bytesPerDoc)
	})

	t.Run("SeriesCostNeverLowered", func(t *testing.T) {
		// barely any series growth measured: 1KB over 30 days
		e, _ := newCalibrating([]int64{100 * mb, 160 * mb, 100*mb + 1024})
		prior := e.seriesBytesPerDay

		e.ObservePageHeld(500)
		e.ReleasePage(30)

		assert.True(t, e.Calibrated())
		assert.Equal(t, prior, e.seriesBytesPerDay)
	})

	t.Run("EmptyPageSkipsCalibration", func(t *testing.T) {
		e, _ := newCalibrating([]int64{100 * mb, 100 * mb, 100 * mb})
		e.ReleasePage(0)
		assert.False(t, e.Calibrated())
	})

	t.Run("MeterFailureLeavesEstimatesUncalibrated", func(t *testing.T) {
		cfg := flatConfig()
		cfg.BudgetBytes = 64 << 30
		meter := &fakeMeter{procErr: errors.New("procfs unavailable")}
		e := New(cfg, meter, Query{InitialPageSize: 1000, TotalCount: 0, SampleDocBytes: 1000})

		e.ObservePageHeld(500)
		e.ReleasePage(30)
		assert.False(t, e.Calibrated())
		assert.EqualValues(t, 500, e.docsProcessed)
	})
}

func TestShrinkUsesCalibratedCosts(t *testing.T) {
	t.Parallel()

	cfg := flatConfig()
	cfg.BudgetBytes = 200 * mb
	// calibration measures 0.1MB/doc and leaves rss at 120MB
	e := New(cfg, &fakeMeter{readings: []int64{100 * mb, 170 * mb, 120 * mb}}, Query{
		SeriesSlots:     0,
		InitialPageSize: 1000,
		TotalCount:      0,
		SampleDocBytes:  1000,
	})
	assert.Equal(t, 1000, e.PageSize())

	e.ObservePageHeld(500)
	e.ReleasePage(30)
	assert.True(t, e.Calibrated())

	// the next page now projects 1000 x 0.1MB = 100MB against 80MB free
	size := e.AdjustPageSize(30)
	assert.Less(t, size, 1000)
	assert.GreaterOrEqual(t, size, 100)
}
