package validation

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the custom rules registered and JSON names
// reported in field errors.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("no_blank", NoBlank)
	_ = v.RegisterValidation("role", ValidRole)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
}

// NoBlank rejects strings made only of whitespace. Empty strings pass so
// the rule composes with omitempty.
func NoBlank(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return strings.TrimSpace(val) != ""
}

func ValidRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "SEEKER", "HR":
		return true
	}
	return false
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, r := range val {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}
