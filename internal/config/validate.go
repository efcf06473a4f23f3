package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct constraints. The returned error is
// marked ErrInvalidConfig and lists every offending key.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.Mark(errors.New("config is nil"), errors.ErrInvalidConfig)
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Mark(err, errors.ErrInvalidConfig)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.Mark(errors.New(strings.Join(msgs, "; ")), errors.ErrInvalidConfig)
}

// describe renders a field error using the dotted config key.
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return key + ": must not be empty"
	case "eq":
		return key + ": unsupported value " + valueString(fe) + " (want " + fe.Param() + ")"
	case "oneof":
		return key + ": must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return key + ": must be at least " + fe.Param()
	case "max":
		return key + ": must be at most " + fe.Param()
	case "excludesall":
		return key + ": must be a directory name, not a path"
	default:
		return key + ": failed " + fe.Tag() + " check"
	}
}

func valueString(fe validator.FieldError) string {
	if s, ok := fe.Value().(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(fe.Value())
}
