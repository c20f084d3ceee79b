// Package validator wraps go-playground/validator behind a small
// surface that returns field-level errors ready for JSON responses.
package validator

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	cli *validator.Validate
}

// ValidationError reports one failed field of a request body.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStruct validates the tagged struct and returns one entry per
// failing field, or nil when everything passes.
func (v *Validator) ValidateStruct(s interface{}) []ValidationError {
	err := v.cli.Struct(s)
	if err == nil {
		return nil
	}
	var errs []ValidationError
	for _, fieldErr := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   fieldErr.StructField(),
			Message: fieldErr.Error(),
		})
	}
	return errs
}
