package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/invenio-contrib/statsdash/cmd/app/server"
	"github.com/invenio-contrib/statsdash/cmd/app/worker"
	"github.com/invenio-contrib/statsdash/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "statsdash",
		Description: "Statistics dashboard backend for InvenioRDM repositories. Built with Go, fiber, bun and go.uber.org/fx. Uses Redis for caching and state synchronization.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			worker.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
