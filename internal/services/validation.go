package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return !allDigits(fl.Field().String())
	})
	return v
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validateInput runs the struct rules and converts failures into a 400 with
// per-field German messages keyed by JSON path.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate input: %w", err)
	}
	return apierr.Validation(validationFields(ves))
}

func validationFields(ves validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		if _, seen := fields[path]; !seen {
			fields[path] = fieldMessage(fe)
		}
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "Dieses Feld ist erforderlich."
	case "email":
		return "Bitte geben Sie eine gültige E-Mail-Adresse ein."
	case "min":
		return fmt.Sprintf("Mindestens %s Zeichen.", fe.Param())
	case "max":
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Array {
			return fmt.Sprintf("Höchstens %s Einträge erlaubt.", fe.Param())
		}
		return fmt.Sprintf("Höchstens %s Zeichen.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Erlaubte Werte: %s.", strings.Join(strings.Fields(fe.Param()), ", "))
	case "password":
		return "Das Passwort darf nicht nur aus Ziffern bestehen."
	default:
		return "Ungültiger Wert."
	}
}

func fieldError(field, message string) error {
	return apierr.Validation(map[string]string{field: message})
}
