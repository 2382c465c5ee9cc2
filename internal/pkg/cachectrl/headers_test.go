package cachectrl

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestOptIn(t *testing.T) {
	app := fiber.New()
	ctx := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(ctx)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	OptIn(ctx, at)

	assert.Equal(t, "public, max-age=3600", string(ctx.Response().Header.Peek(fiber.HeaderCacheControl)))
	assert.Equal(t, at.Add(time.Hour).Format(time.RFC1123), string(ctx.Response().Header.Peek(fiber.HeaderExpires)))
	assert.NotEmpty(t, ctx.Response().Header.Peek(fiber.HeaderLastModified))
}

func TestOptOut(t *testing.T) {
	app := fiber.New()
	ctx := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(ctx)

	OptOut(ctx)

	assert.Equal(t, "no-cache, no-store, must-revalidate", string(ctx.Response().Header.Peek(fiber.HeaderCacheControl)))
	assert.Equal(t, "no-cache", string(ctx.Response().Header.Peek(fiber.HeaderPragma)))
	assert.Equal(t, "0", string(ctx.Response().Header.Peek(fiber.HeaderExpires)))
}
