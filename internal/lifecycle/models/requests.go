package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "minbar/pkg/domain-errors"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ApplicantInfo is what a prospective admin submits with an application.
type ApplicantInfo struct {
	Name             string `json:"name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Phone            string `json:"phone" validate:"required,min=7,max=20"`
	VerificationCode string `json:"verification_code" validate:"required,max=64"`
	Notes            string `json:"notes" validate:"max=2000"`
}

// Normalize trims fields and lowercases the email so uniqueness is case-insensitive.
func (a *ApplicantInfo) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Phone = strings.TrimSpace(a.Phone)
	a.VerificationCode = strings.TrimSpace(a.VerificationCode)
	a.Notes = strings.TrimSpace(a.Notes)
}

func (a *ApplicantInfo) Validate() error {
	return Validate(a)
}

// MinJustificationLength is the minimum trimmed length of a reason for
// destructive operations on the audit log.
const MinJustificationLength = 10

// ValidateJustification checks a reason for purge and bulk delete.
func ValidateJustification(reason string) error {
	if len([]rune(strings.TrimSpace(reason))) < MinJustificationLength {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("justification must be at least %d characters", MinJustificationLength))
	}
	return nil
}

// ValidateReason checks the free-text reason on super admin transitions.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 2000 characters or less")
	}
	return nil
}

// Validate runs struct tag validation and converts failures to a validation_error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
