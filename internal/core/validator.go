package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"weatherplugin/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with the request rules of the
// weather API:
//   - place_name: printable text without control characters
//   - ip_addr: a parseable IPv4 or IPv6 address
//   - location_text, lang_code: place_name capped at types.MaxLocationLength
//     and types.MaxLangLength runes
//
// Error codes report the underlying tag, so an alias failure reads "max" or
// "place_name".
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator. Field names in errors follow json tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("place_name", validatePlaceName)
	_ = v.RegisterValidation("ip_addr", validateIPAddr)
	v.RegisterAlias("location_text", fmt.Sprintf("max=%d,place_name", types.MaxLocationLength))
	v.RegisterAlias("lang_code", fmt.Sprintf("max=%d,place_name", types.MaxLangLength))

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil, or an AppError whose Details carry every failed
// field under "validation_errors". The code follows the first failure.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	details := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ValidationError{
			Field:   fe.Field(),
			Code:    fe.ActualTag(),
			Message: fieldMessage(fe),
		})
	}

	code := types.ErrCodeValidationInvalidField
	if fieldErrs[0].ActualTag() == "required" {
		code = types.ErrCodeValidationMissingField
	}
	return types.NewAppError(code, details[0].Message, err).
		WithDetails(map[string]any{"validation_errors": details})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "place_name":
		return fmt.Sprintf("%s must not contain control characters", fe.Field())
	case "ip_addr":
		return fmt.Sprintf("%s must be an IP address", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.ActualTag())
	}
}

func validatePlaceName(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
}

func validateIPAddr(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
