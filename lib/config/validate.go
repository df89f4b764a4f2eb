package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// bare extension token: no dot, no path separator, no whitespace
	err := v.RegisterValidation("extension", func(fl validator.FieldLevel) bool {
		ext := fl.Field().String()
		return !strings.ContainsAny(ext, `./\`) &&
			strings.IndexFunc(ext, unicode.IsSpace) < 0
	})
	if err != nil {
		panic(err)
	}

	return v
}

type extensionArgs struct {
	Extensions []string `validate:"min=1,dive,required,extension"`
}

// ValidateExtensions checks directive arguments in strict mode.
func ValidateExtensions(extensions []string) error {
	err := validate.Struct(extensionArgs{Extensions: extensions})
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		e := errs[0]
		if e.Tag() == "min" {
			return ErrNoExtensions
		}
		return fmt.Errorf("invalid extension '%v': rule '%s'", e.Value(), e.Tag())
	}

	return fmt.Errorf("extension validation error: %w", err)
}
