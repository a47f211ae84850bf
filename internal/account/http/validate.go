package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/loopline/accountd/internal/account/service"
)

// validate is shared across handlers; validator.Validate is safe for
// concurrent use once the custom rules are registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report field names as they appear on the wire, not as Go identifiers.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}

	// e164ish: leading '+' followed by 8 to 15 digits.
	mustRegister("e164ish", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		if !strings.HasPrefix(s, "+") {
			return false
		}
		digits := s[1:]
		if len(digits) < 8 || len(digits) > 15 {
			return false
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	// passwordrules: complexity only; password-vs-email is checked in the
	// service layer where both values are in hand.
	mustRegister("passwordrules", func(fl validator.FieldLevel) bool {
		return service.PasswordMeetsComplexity(fl.Field().String())
	})

	return v
}

// decodeAndValidate parses the JSON body into dst and runs the validator.
// On failure it writes the error response itself and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			writeServerError(w)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		writeValidationError(w, fields)
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	return validationMessageTagged(fe.Tag(), fe.Param())
}

// validationMessageFor lets handlers report service-side rule failures with
// the same wording the validator uses.
func validationMessageFor(tag string) string {
	return validationMessageTagged(tag, "")
}

func validationMessageTagged(tag, param string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters long", param)
	case "e164ish":
		return "must be a '+' followed by 8 to 15 digits"
	case "passwordrules":
		return "must be at least 8 characters with a lowercase letter, a digit, and an uppercase letter or symbol"
	case "eqfield":
		return fmt.Sprintf("must match %s", strings.ToLower(param))
	default:
		return fmt.Sprintf("invalid value (%s)", tag)
	}
}
