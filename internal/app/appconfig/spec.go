package appconfig

import (
	"time"

	"github.com/invenio-contrib/statsdash/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9040"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic. See internal/server/httpserver/http.go for the
	// actual implementation details.
	DevMode bool `split_words:"true"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// RedisURL is the URL of the Redis server, and by default uses redis db 1, to avoid potential collision
	// with other services sharing the same instance. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/1"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// AdminKey is the key used to authenticate the admin API.
	AdminKey string `split_words:"true"`

	// SeriesCacheTTL is how long a computed series payload stays cached before
	// the next request recomputes it.
	SeriesCacheTTL time.Duration `split_words:"true" default:"24h"`

	// WorkerEnabled is a flag to indicate whether to enable the worker.
	WorkerEnabled bool `split_words:"true"`

	// WorkerInterval describes the interval in-between different batches
	WorkerInterval time.Duration `required:"true" split_words:"true" default:"6h"`

	// WorkerSeparation describes the separation time in-between different microtasks
	WorkerSeparation time.Duration `required:"true" split_words:"true" default:"3s"`

	// WorkerTimeout describes the timeout for a single batch to run
	WorkerTimeout time.Duration `required:"true" split_words:"true" default:"30m"`

	// WorkerCommunities is the list of community IDs the worker pre-computes
	// series for, in addition to the repository-wide aggregate.
	WorkerCommunities []string `split_words:"true" default:"__global__"`

	// memory estimator tunables; zero values fall back to built-in defaults

	// EstimatorMemoryBudgetBytes caps the estimated peak memory of a series
	// build. When 0 the budget is derived from total system memory.
	EstimatorMemoryBudgetBytes int64 `split_words:"true" default:"0"`

	// EstimatorHighWaterFraction is the fraction of total system memory used
	// as the budget when EstimatorMemoryBudgetBytes is 0.
	EstimatorHighWaterFraction float64 `split_words:"true" default:"0.75"`

	EstimatorInitialPageSize int `split_words:"true" default:"1000"`
	EstimatorPageSizeMin     int `split_words:"true" default:"100"`
	EstimatorPageSizeMax     int `split_words:"true" default:"10000"`

	EstimatorAvgDocBytes       int64 `split_words:"true" default:"4096"`
	EstimatorBytesPerDataPoint int64 `split_words:"true" default:"160"`

	EstimatorPageOverheadFactor   float64 `split_words:"true" default:"1.2"`
	EstimatorSeriesOverheadFactor float64 `split_words:"true" default:"1.1"`
	EstimatorInMemoryMultiplier   float64 `split_words:"true" default:"2.5"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
