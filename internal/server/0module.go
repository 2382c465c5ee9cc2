package server

import (
	"go.uber.org/fx"

	"github.com/invenio-contrib/statsdash/internal/server/httpserver"
	"github.com/invenio-contrib/statsdash/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
