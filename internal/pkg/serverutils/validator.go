package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks a bound request body against its validate tags.
// Returned errors are mapped to 400 by the error handler middleware.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
