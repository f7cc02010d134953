// Package validation provides input validation utilities.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom tags registered:
// "password", "email_addr" and "notblank".
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("email_addr", func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Struct validates s and flattens validator errors into one readable message.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "password":
		if err := ValidatePassword(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return field + " is invalid"
	case "email_addr":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s) or characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

// ValidatePassword checks if a password meets security requirements.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters long")
	}
	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return errors.New("password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return errors.New("password must contain at least one special character (!@#$%^&*)")
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return errors.New("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
