package service

import (
	"errors"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("user_type", func(fl validator.FieldLevel) bool {
		return models.UserType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})
	return v
}

// firstFieldError returns the first failed rule, or nil if err is not a
// validation failure.
func firstFieldError(err error) validator.FieldError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// hasTag reports whether any rule with the given tag failed.
func hasTag(err error, tag string) bool {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return false
	}
	for _, fe := range errs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
