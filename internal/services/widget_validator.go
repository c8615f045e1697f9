package services

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"widgets/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// rule is a single validator tag and the message reported when it fails.
type rule struct {
	tag     string
	message string
}

var (
	nameRules = []rule{
		{tag: "notblank", message: "Name cannot be blank"},
		{tag: "min=3,max=100", message: "Name must be between 3 and 100 characters"},
	}
	descriptionRules = []rule{
		{tag: "min=5,max=1000", message: "Description must be between 5 and 1000 characters"},
	}
	priceRules = []rule{
		{tag: "decimal_gte=1.00", message: "Price must be at least 1.00"},
		{tag: "decimal_lte=20000.00", message: "Price cannot exceed 20000.00"},
		{tag: "decimal_digits=5:2", message: "Price must have up to 5 integer digits and 2 decimal places"},
	}
)

const (
	nameRequiredMessage  = "Name cannot be blank"
	priceRequiredMessage = "Price cannot be null"
)

// WidgetValidator checks widget requests against the field rules.
// Every rule is evaluated so a request reports all of its violations at once.
type WidgetValidator struct {
	validate *validator.Validate
}

// NewWidgetValidator creates a WidgetValidator with the decimal tags registered.
func NewWidgetValidator() *WidgetValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "decimal_gte", decimalGTE)
	mustRegister(v, "decimal_lte", decimalLTE)
	mustRegister(v, "decimal_digits", decimalDigits)
	return &WidgetValidator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidateCreate requires name and price and checks every present field.
func (v *WidgetValidator) ValidateCreate(req models.WidgetRequest) error {
	var msgs []string
	if req.Name == nil {
		msgs = append(msgs, fieldMessage("name", nameRequiredMessage))
	}
	if req.Price == nil {
		msgs = append(msgs, fieldMessage("price", priceRequiredMessage))
	}
	msgs = append(msgs, v.check(req)...)
	return asError(msgs)
}

// ValidateUpdate checks the fields present in a partial update.
func (v *WidgetValidator) ValidateUpdate(req models.WidgetRequest) error {
	return asError(v.check(req))
}

// ValidateName checks a name taken from the request path.
func (v *WidgetValidator) ValidateName(name string) error {
	return asError(v.apply("name", name, nameRules[1:]))
}

func (v *WidgetValidator) check(req models.WidgetRequest) []string {
	var msgs []string
	if req.Name != nil {
		msgs = append(msgs, v.apply("name", *req.Name, nameRules)...)
	}
	if req.Description != nil {
		msgs = append(msgs, v.apply("description", *req.Description, descriptionRules)...)
	}
	if req.Price != nil {
		msgs = append(msgs, v.apply("price", req.Price.Decimal, priceRules)...)
	}
	return msgs
}

func (v *WidgetValidator) apply(field string, value interface{}, rules []rule) []string {
	var msgs []string
	for _, r := range rules {
		if err := v.validate.Var(value, r.tag); err != nil {
			msgs = append(msgs, fieldMessage(field, r.message))
		}
	}
	return msgs
}

func fieldMessage(field, message string) string {
	return field + ": " + message
}

func asError(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

func decimalGTE(fl validator.FieldLevel) bool {
	value, bound, ok := decimalOperands(fl)
	return ok && value.GreaterThanOrEqual(bound)
}

func decimalLTE(fl validator.FieldLevel) bool {
	value, bound, ok := decimalOperands(fl)
	return ok && value.LessThanOrEqual(bound)
}

func decimalOperands(fl validator.FieldLevel) (decimal.Decimal, decimal.Decimal, bool) {
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	bound, err := decimal.NewFromString(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("bad decimal bound %q: %v", fl.Param(), err))
	}
	return value, bound, true
}

// decimalDigits takes "<integer>:<fraction>" and bounds the digit counts.
// Trailing fraction zeros do not count, so 1.500 has one fraction digit.
func decimalDigits(fl validator.FieldLevel) bool {
	maxInt, maxFrac, err := parseDigits(fl.Param())
	if err != nil {
		panic(err)
	}
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	integer, fraction := countDigits(value)
	return integer <= maxInt && fraction <= maxFrac
}

func parseDigits(param string) (int, int, error) {
	intPart, fracPart, ok := strings.Cut(param, ":")
	if !ok {
		return 0, 0, fmt.Errorf("bad digits param %q", param)
	}
	maxInt, err := strconv.Atoi(intPart)
	if err != nil {
		return 0, 0, fmt.Errorf("bad digits param %q: %w", param, err)
	}
	maxFrac, err := strconv.Atoi(fracPart)
	if err != nil {
		return 0, 0, fmt.Errorf("bad digits param %q: %w", param, err)
	}
	return maxInt, maxFrac, nil
}

func countDigits(d decimal.Decimal) (integer, fraction int) {
	intPart, fracPart, _ := strings.Cut(d.Abs().String(), ".")
	if intPart != "0" {
		integer = len(intPart)
	}
	return integer, len(fracPart)
}
