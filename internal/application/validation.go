package application

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

// Field names shared by struct tags and hand written checks.
const (
	fieldOwnerID      = "owner_id"
	fieldStudentID    = "student_id"
	fieldCity         = "city"
	fieldAvailableTo  = "available_to"
	fieldEndDate      = "end_date"
	fieldStay         = "stay"
	fieldAvailability = "availability"
	fieldDecision     = "decision"
	fieldStatus       = "status"
	fieldEmail        = "email"
)

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(scheduler.Date); ok {
			return d.String()
		}
		return nil
	}, scheduler.Date{})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	mustRegister(v, "room_type", func(fl validator.FieldLevel) bool {
		_, ok := persistence.ParseRoomType(fl.Field().String())
		return ok
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("application: register " + tag + " validation: " + err.Error())
	}
}

// validateInput runs the struct tag rules on input and translates failures
// into field errors keyed by JSON name.
func validateInput(input any) *ValidationError {
	vErr := &ValidationError{}
	err := inputValidator.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), translateFieldError(fe))
	}
	return vErr
}

func translateFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "finite":
		return "must be a finite number"
	case "room_type":
		return "must be SINGLE or DOUBLE"
	}
	return "is invalid"
}

// requireID records a "is required" error when id is blank.
func requireID(vErr *ValidationError, field, id string) {
	if strings.TrimSpace(id) == "" {
		vErr.add(field, "is required")
	}
}

// normalizeAmenities trims, drops blanks, de-duplicates and sorts amenities.
func normalizeAmenities(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	slices.Sort(out)
	return out
}
