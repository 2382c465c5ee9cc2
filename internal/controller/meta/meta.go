package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	cachemw "github.com/gofiber/fiber/v2/middleware/cache"
	"go.uber.org/fx"

	"github.com/invenio-contrib/statsdash/internal/model/cache"
	"github.com/invenio-contrib/statsdash/internal/pkg/bininfo"
	"github.com/invenio-contrib/statsdash/internal/pkg/cachectrl"
	"github.com/invenio-contrib/statsdash/internal/server/svr"
	"github.com/invenio-contrib/statsdash/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/bininfo", c.BinInfo)

	meta.Get("/health", cachemw.New(cachemw.Config{
		// cache it for a second to mitigate potential DDoS
		Expiration: time.Second,
	}), c.Health)

	meta.Get("/worker", c.Worker)
}

func (c *Meta) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version": bininfo.Version,
		"build":   bininfo.BuildTime,
	})
}

func (c *Meta) Health(ctx *fiber.Ctx) error {
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}

// Worker reports when this instance last finished a precompute batch, for
// liveness checks on the worker loop.
func (c *Meta) Worker(ctx *fiber.Ctx) error {
	cachectrl.OptOut(ctx)

	var lastBatch time.Time
	if err := cache.WorkerLastBatch.Get(&lastBatch); err != nil {
		return ctx.JSON(fiber.Map{
			"lastBatch": nil,
		})
	}

	return ctx.JSON(fiber.Map{
		"lastBatch": lastBatch,
	})
}
