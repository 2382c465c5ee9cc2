package rekuest

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/gofiber/fiber/v2"
)

var uni = ut.New(en.New())

// TranslatorFromCtx returns the request's translator, falling back to the
// English fallback translator when none was injected.
func TranslatorFromCtx(ctx *fiber.Ctx) ut.Translator {
	if tr, ok := ctx.Locals("T").(ut.Translator); ok {
		return tr
	}
	return uni.GetFallback()
}
