package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on a request DTO. The returned error is a
// validator.ValidationErrors when fields failed, which handlers unpack into
// the API error payload.
func Validate(req any) error {
	return validate.Struct(req)
}
