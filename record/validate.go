package record

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Input is the payload of a create or update call.
type Input struct {
	Nickname string            `json:"nickname" validate:"required,min=3,max=64,nickname"`
	Fields   map[string]string `json:"fields" validate:"max=64,dive,keys,min=1,max=128,endkeys,max=4096"`
}

// inputValidate is initialized once with the custom nickname rule.
var inputValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("nickname", validateNickname); err != nil {
		panic(fmt.Sprintf("register nickname validator: %v", err))
	}
	return v
}

// validateNickname rejects invalid UTF-8 and control characters.
func validateNickname(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !utf8.ValidString(s) {
		return false
	}
	return strings.IndexFunc(s, unicode.IsControl) < 0
}

// Validate reports whether in is acceptable to Create and Update. Failures
// wrap ErrInvalidArgument.
func (in Input) Validate() error {
	err := inputValidate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(msgs, "; "))
}
