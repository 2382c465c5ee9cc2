package aggwkr

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/app/appconfig"
	"github.com/invenio-contrib/statsdash/internal/app/appcontext"
	"github.com/invenio-contrib/statsdash/internal/model/cache"
	"github.com/invenio-contrib/statsdash/internal/pkg/dataseries"
	"github.com/invenio-contrib/statsdash/internal/pkg/observability"
	"github.com/invenio-contrib/statsdash/internal/service"
)

type WorkerDeps struct {
	fx.In

	DataSeriesService *service.DataSeries
}

type Worker struct {
	// count counts batches worker has completed so far
	count int

	// sep describes the separation time in-between different communities
	sep time.Duration

	// interval describes the interval in-between different batches of job running
	interval time.Duration

	// timeout bounds a single batch
	timeout time.Duration

	communities []string

	// lock keeps concurrent instances from recomputing the same batch
	lock *redsync.Mutex

	// deps
	WorkerDeps
}

// Start launches the worker loop when the worker is enabled by config or
// when the process was started as a dedicated worker.
func Start(conf *appconfig.Config, deps WorkerDeps, lock *redsync.Redsync) {
	if !conf.WorkerEnabled && conf.AppContext.Env != appcontext.EnvWorker {
		log.Info().Msg("worker is disabled, skipping worker startup")
		return
	}
	(&Worker{
		sep:         conf.WorkerSeparation,
		interval:    conf.WorkerInterval,
		timeout:     conf.WorkerTimeout,
		communities: conf.WorkerCommunities,
		lock:        lock.NewMutex("mutex:aggwkr", redsync.WithExpiry(30*time.Minute), redsync.WithTries(2)),
		WorkerDeps:  deps,
	}).do()
}

func (w *Worker) do() context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			w.batch(ctx)

			w.count++
			time.Sleep(w.interval)
		}
	}()

	return cancel
}

func (w *Worker) batch(parent context.Context) {
	if err := w.lock.Lock(); err != nil {
		log.Info().Err(err).Msg("another instance is already running the batch, skipping")
		return
	}
	defer w.lock.Unlock()

	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	log.Info().
		Int("count", w.count).
		Msg("worker batch started")

	for _, community := range w.communities {
		eg := errgroup.Group{}
		eg.SetLimit(2)
		for _, category := range dataseries.Categories() {
			category := category
			eg.Go(func() error {
				log.Info().Str("community", community).Str("category", string(category)).Msg("worker calculating")
				start := time.Now()
				_, _, err := w.DataSeriesService.GetSeriesJSON(ctx, community, category, null.String{}, null.String{})
				if err != nil {
					log.Error().Err(err).Str("community", community).Str("category", string(category)).Msg("worker calculation failed")
					return nil
				}
				observability.WorkerCalcDuration.
					WithLabelValues(community, string(category)).
					Set(time.Since(start).Seconds())
				log.Debug().Str("community", community).Str("category", string(category)).Msg("worker finished")
				return nil
			})
		}
		_ = eg.Wait()
		time.Sleep(w.sep)
	}

	_ = cache.WorkerLastBatch.Set(time.Now(), 0)
	log.Info().Int("count", w.count).Msg("worker batch finished")
}

func (w *Worker) Count() int {
	return w.count
}
