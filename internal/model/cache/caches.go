package cache

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/pkg/cache"
)

type Flusher func() error
type Deleter func(key string) error

var (
	// DataSeries holds fully built series payloads, pre-marshalled, keyed by
	// community, category and the requested date range.
	DataSeries *cache.Set[json.RawMessage]

	// LastModifiedTime records when each DataSeries entry was computed, for
	// conditional-request headers.
	LastModifiedTime *cache.Set[time.Time]

	// WorkerLastBatch records when the precompute worker last finished a
	// batch on this instance.
	WorkerLastBatch *cache.Singular[time.Time]

	once sync.Once

	SetDeleterMap      map[string]Deleter
	SetFlusherMap      map[string]Flusher
	SingularFlusherMap map[string]Flusher
)

func Initialize(client *redis.Client) {
	once.Do(func() {
		cache.Initialize(client)
		initializeCaches()
	})
}

func Delete(name string, key null.String) error {
	if key.Valid {
		if del, ok := SetDeleterMap[name]; ok {
			if err := del(key.String); err != nil {
				return err
			}
		}
	} else {
		if flush, ok := SingularFlusherMap[name]; ok {
			if err := flush(); err != nil {
				return err
			}
		} else if flush, ok := SetFlusherMap[name]; ok {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush clears every registered cache.
func Flush() error {
	for _, flush := range SetFlusherMap {
		if err := flush(); err != nil {
			return err
		}
	}
	for _, flush := range SingularFlusherMap {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

func initializeCaches() {
	SetDeleterMap = make(map[string]Deleter)
	SetFlusherMap = make(map[string]Flusher)
	SingularFlusherMap = make(map[string]Flusher)

	// data series
	DataSeries = cache.NewSet[json.RawMessage]("dataSeries#community|category|start|end")

	SetDeleterMap["dataSeries#community|category|start|end"] = DataSeries.Delete
	SetFlusherMap["dataSeries#community|category|start|end"] = DataSeries.Flush

	// last modified time
	LastModifiedTime = cache.NewSet[time.Time]("lastModifiedTime#key")

	SetDeleterMap["lastModifiedTime#key"] = LastModifiedTime.Delete
	SetFlusherMap["lastModifiedTime#key"] = LastModifiedTime.Flush

	// worker last batch
	WorkerLastBatch = cache.NewSingular[time.Time]("workerLastBatch")

	SingularFlusherMap["workerLastBatch"] = WorkerLastBatch.Delete
}
