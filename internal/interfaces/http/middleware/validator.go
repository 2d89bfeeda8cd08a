package middleware

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator registers custom validations with gin's binding validator
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("order_key", validOrderKey)
	}
}

// validOrderKey checks the merchantID-orderID shape of a deduplication key.
// The merchant half may be empty (a missing identifier is coerced, not
// rejected), but the order half after the first separator must carry a
// real identifier.
func validOrderKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	sep := strings.Index(key, "-")
	if sep < 0 {
		return false
	}
	return strings.TrimSpace(key[sep+1:]) != ""
}
