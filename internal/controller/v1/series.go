package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/model/cache"
	"github.com/invenio-contrib/statsdash/internal/pkg/cachectrl"
	"github.com/invenio-contrib/statsdash/internal/pkg/dataseries"
	"github.com/invenio-contrib/statsdash/internal/pkg/flog"
	"github.com/invenio-contrib/statsdash/internal/pkg/rekuest"
	"github.com/invenio-contrib/statsdash/internal/server/svr"
	"github.com/invenio-contrib/statsdash/internal/service"
)

type Series struct {
	fx.In

	DataSeriesService *service.DataSeries
	CommunityService  *service.Community
}

func RegisterSeries(v1 *svr.V1, c Series) {
	v1.Get("/communities/:communityId/series", c.GetSeries)
	v1.Get("/communities/:communityId/series/top", c.GetTopSeries)
	v1.Get("/communities/:communityId/events", c.GetEvents)
}

type seriesRequest struct {
	Category string `validate:"required,seriescategory"`
	Start    string `validate:"omitempty,isodate"`
	End      string `validate:"omitempty,isodate"`
}

func (c *Series) GetSeries(ctx *fiber.Ctx) error {
	communityID := ctx.Params("communityId")
	if err := rekuest.ValidVar(ctx, communityID, "required,max=255"); err != nil {
		return err
	}
	req := seriesRequest{
		Category: ctx.Query("category"),
		Start:    ctx.Query("start"),
		End:      ctx.Query("end"),
	}
	if err := rekuest.ValidStruct(ctx, &req); err != nil {
		return err
	}

	payload, cacheKey, err := c.DataSeriesService.GetSeriesJSON(
		ctx.UserContext(),
		communityID,
		dataseries.Category(req.Category),
		null.NewString(req.Start, req.Start != ""),
		null.NewString(req.End, req.End != ""),
	)
	if err != nil {
		return err
	}

	var lastModifiedTime time.Time
	if err := cache.LastModifiedTime.Get(cacheKey, &lastModifiedTime); err != nil {
		lastModifiedTime = time.Now()
	}
	cachectrl.OptIn(ctx, lastModifiedTime)
	flog.DebugFrom(ctx).Str("cacheKey", cacheKey).Msg("serving data series")

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return ctx.Send(payload)
}

type topSeriesRequest struct {
	Category string `validate:"required,seriescategory"`
	Subcount string `validate:"required"`
	Metric   string `validate:"required"`
	N        int    `validate:"required,min=1,max=100"`
	Start    string `validate:"omitempty,isodate"`
	End      string `validate:"omitempty,isodate"`
}

func (c *Series) GetTopSeries(ctx *fiber.Ctx) error {
	communityID := ctx.Params("communityId")
	if err := rekuest.ValidVar(ctx, communityID, "required,max=255"); err != nil {
		return err
	}
	req := topSeriesRequest{
		Category: ctx.Query("category"),
		Subcount: ctx.Query("subcount"),
		Metric:   ctx.Query("metric"),
		N:        ctx.QueryInt("n", 10),
		Start:    ctx.Query("start"),
		End:      ctx.Query("end"),
	}
	if err := rekuest.ValidStruct(ctx, &req); err != nil {
		return err
	}

	result, err := c.DataSeriesService.BuildSeries(
		ctx.UserContext(),
		communityID,
		dataseries.Category(req.Category),
		null.NewString(req.Start, req.Start != ""),
		null.NewString(req.End, req.End != ""),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"subcount": dataseries.ToCamel(req.Subcount),
		"metric":   dataseries.ToCamel(req.Metric),
		"series":   c.DataSeriesService.TopSeries(result, req.Subcount, req.Metric, req.N),
	})
}

// GetEvents reports how many records entered and left the community and the
// date span its statistics cover.
func (c *Series) GetEvents(ctx *fiber.Ctx) error {
	communityID := ctx.Params("communityId")
	if err := rekuest.ValidVar(ctx, communityID, "required,max=255"); err != nil {
		return err
	}

	added, removed, span, err := c.CommunityService.GetEventStats(ctx.UserContext(), communityID)
	if err != nil {
		return err
	}

	body := fiber.Map{
		"added":   added,
		"removed": removed,
	}
	if span != nil {
		body["firstDate"] = span.First.Format("2006-01-02")
		body["lastDate"] = span.Last.Format("2006-01-02")
	}
	return ctx.JSON(body)
}
