package rekuest

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"

	"github.com/invenio-contrib/statsdash/internal/pkg/dataseries"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("seriescategory", seriesCategory)
	validate.RegisterValidation("isodate", isoDate)
	validate.RegisterCustomTypeFunc(nullStringValuer, null.String{})
	validate.RegisterCustomTypeFunc(nullIntValuer, null.Int{})

	return validate
}

func seriesCategory(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return dataseries.Category(val).Valid()
}

func isoDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", val)
	return err == nil
}

func nullStringValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.String); ok {
		return valuer.String
	}

	return nil
}

func nullIntValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.Int); ok {
		return valuer.Int64
	}

	return nil
}
