package handlers

import (
	"reflect"
	"strings"
	"sync"

	"tourbook/internal/domain"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom rules used by request bodies to gin's validator and
// reports fields by their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			_, ok := utils.NormalizeCurrency(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParsePaymentMethod(fl.Field().String())
			return ok
		})
	})
}
