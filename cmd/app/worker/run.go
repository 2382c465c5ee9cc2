package worker

import (
	"github.com/invenio-contrib/statsdash/internal/app"
	"github.com/invenio-contrib/statsdash/internal/app/appcontext"
)

// Run starts the fx app without attaching the HTTP listener: the worker
// loop runs via its fx.Invoke hook regardless of config.
func Run() {
	app.New(appcontext.Declare(appcontext.EnvWorker)).
		Run()
}
