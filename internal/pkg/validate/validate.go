package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names in error messages
// are taken from the json tag so they match what the client sent.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct validates the given struct using its validate tags.
// Failures are wrapped with domain.ErrBadRequest.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
	}
	return nil
}

// Trim trims surrounding whitespace from s in place.
func Trim(s ...*string) {
	for _, p := range s {
		*p = strings.TrimSpace(*p)
	}
}

// TrimOptional trims *p in place and sets p to nil when nothing is left,
// so a blank optional field counts as absent.
func TrimOptional(p **string) {
	if *p == nil {
		return
	}
	t := strings.TrimSpace(**p)
	if t == "" {
		*p = nil
		return
	}
	*p = &t
}
