package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator. Field names in errors
// are the yaml keys.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		// endpoint accepts an empty string or an http(s) URL with a host.
		_ = v.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
			raw := fl.Field().String()
			if raw == "" {
				return true
			}
			u, err := url.Parse(raw)
			if err != nil {
				return false
			}
			scheme := strings.ToLower(u.Scheme)
			return (scheme == "http" || scheme == "https") && u.Host != ""
		})

		validateInst = v
	})
	return validateInst
}

// ValidationError names the first configuration key that failed
// validation, e.g. "solver.policy".
type ValidationError struct {
	Field   string
	Tag     string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	err := validatorInstance().Struct(cfg)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return &ValidationError{Field: "config", Message: err.Error(), Err: err}
	}
	fe := ves[0]
	return &ValidationError{
		Field:   yamlPath(fe),
		Tag:     fe.Tag(),
		Message: describe(fe),
		Err:     err,
	}
}

// yamlPath drops the root struct name from the namespace.
func yamlPath(fe validator.FieldError) string {
	_, rest, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "required", "required_if":
		return "is required"
	case "endpoint":
		return fmt.Sprintf("must be an http or https URL, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed validation for tag %q", fe.Tag())
	}
}
