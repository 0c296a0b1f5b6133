package validators

import (
	"cyberslate/esports-api/internal/apperr"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register adds the custom tags to gin's validator engine. It is safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// Report fields by their json name
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return PasswordValidator(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		})
		_ = v.RegisterValidation("mail", func(fl validator.FieldLevel) bool {
			return EmailValidator(fl.Field().String()) == nil
		})
	})
}

// Describe turns a binding error into a single client facing message
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}

	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, fe.Param())
	case "email", "mail":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "digits":
		return fmt.Sprintf("%s must contain only digits", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "password":
		if err := PasswordValidator(fmt.Sprint(fe.Value())); err != nil {
			return fmt.Sprintf("%s: %s", field, err)
		}
		return fmt.Sprintf("%s is too weak", field)
	default:
		return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
	}
}

// Bind decodes the request into obj and answers 422 with the field messages
// when that fails. It reports whether the handler may continue.
func Bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		apperr.Respond(c, apperr.Validation(Describe(err)))
		return false
	}

	return true
}
