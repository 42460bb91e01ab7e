package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldViolation is a single failed constraint on one input field.
type FieldViolation struct {
	Field   string `json:"field" example:"price"`
	Message string `json:"message" example:"price must be greater than 0"`
}

// ValidationError carries every violated constraint of a create or update
// payload, not just the first one found.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var validate = newValidator()

// priceFitsScale checks that a price fits NUMERIC(12,2): at most 10 integer
// digits and 2 fraction digits. The shortest decimal rendering of the float
// is inspected so representation noise does not flip the verdict.
func priceFitsScale(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	text := strconv.FormatFloat(math.Abs(price), 'f', -1, 64)
	intPart, fracPart, _ := strings.Cut(text, ".")
	return len(intPart) <= 10 && len(fracPart) <= 2
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pricescale", func(fl validator.FieldLevel) bool {
		return priceFitsScale(fl.Field().Float())
	})
	return v
}

// ValidateCreate checks a create payload against the product constraints.
func ValidateCreate(in CreateProduct) error {
	return translate(validate.Struct(in))
}

// ValidateUpdate checks the supplied fields of a partial update. Absent
// fields are not validated, so "no change" can never fail a constraint.
func ValidateUpdate(in ProductUpdate) error {
	return translate(validate.Struct(in))
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		field := jsonField(fe.Field())
		verr.Violations = append(verr.Violations, FieldViolation{
			Field:   field,
			Message: violationMessage(field, fe),
		})
	}
	return verr
}

func jsonField(structField string) string {
	return strings.ToLower(structField[:1]) + structField[1:]
}

func violationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "pricescale":
		return fmt.Sprintf("%s must have at most 10 integer digits and 2 decimal places", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
