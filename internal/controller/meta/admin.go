package meta

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/invenio-contrib/statsdash/internal/model/cache"
	"github.com/invenio-contrib/statsdash/internal/model/types"
	"github.com/invenio-contrib/statsdash/internal/pkg/rekuest"
	"github.com/invenio-contrib/statsdash/internal/server/svr"
)

type Admin struct {
	fx.In
}

func RegisterAdmin(admin *svr.Admin, c Admin) {
	admin.Post("/cache/purge", c.PurgeCache)
	admin.Post("/cache/flush", c.FlushCache)
}

func (c *Admin) PurgeCache(ctx *fiber.Ctx) error {
	var request types.PurgeCacheRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}
	for _, pair := range request.Pairs {
		if err := cache.Delete(pair.Name, pair.Key); err != nil {
			return err
		}
	}
	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}

func (c *Admin) FlushCache(ctx *fiber.Ctx) error {
	if err := cache.Flush(); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}
