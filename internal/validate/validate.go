// Package validate checks configuration and descriptor values against their
// validate tags. Failures name fields by their json keys.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// msgMissing replaces the translator's text for the required tag.
const msgMissing = "must be set"

var (
	checker = newChecker()
	trans   ut.Translator
)

func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	t, found := ut.New(english, english).GetTranslator("en")
	if !found {
		panic("validate: no en translator")
	}
	if err := en_translations.RegisterDefaultTranslations(v, t); err != nil {
		panic(err)
	}
	trans = t

	v.RegisterTagNameFunc(jsonName)

	return v
}

// jsonName reports a field by its json key; "-" hides it.
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Struct checks val. It returns nil, [FieldErrors], or the validator's
// error when val is not a struct.
func Struct(val any) error {
	err := checker.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, FieldError{Field: trimRoot(ve.Namespace()), Err: message(ve)})
	}

	return out
}

// FieldError is one failed field, addressed by its dotted json path.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors lists every failed field of one check.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	var b strings.Builder
	for i, f := range fe {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Field + ": " + f.Err)
	}
	return b.String()
}

// Fields returns the failed paths in validation order.
func (fe FieldErrors) Fields() []string {
	paths := make([]string, 0, len(fe))
	for _, f := range fe {
		paths = append(paths, f.Field)
	}
	return paths
}

// trimRoot turns "Config.transport.headers" into "transport.headers".
func trimRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(ve validator.FieldError) string {
	if ve.Tag() == "required" {
		return msgMissing
	}
	return ve.Translate(trans)
}
