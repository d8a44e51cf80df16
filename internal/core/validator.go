package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"weatherpredict/internal/types"
)

// Validator wraps go-playground/validator. Field names in reported errors are
// the JSON names clients send, not Go field names.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator that reports fields by their json tag.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{validate: v, logger: logger}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// ValidateStruct validates s against its struct tags. Missing required fields
// produce validation_missing_required_field with every offending field listed
// in details in declaration order; any other rule failure produces validation_invalid_field.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("struct validation could not run", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}

	if len(missing) > 0 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"missing required field(s): "+strings.Join(missing, ", "),
			err,
			map[string]any{"fields": missing},
		)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidField,
		"invalid value for field(s): "+strings.Join(invalid, ", "),
		err,
		map[string]any{"fields": invalid},
	)
}
