package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their query/json name rather than the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// tagRule renders one validator tag. param names the Params entry that
// carries the tag argument; empty means the tag takes none.
type tagRule struct {
	format string
	param  string
}

// tagRules covers the tags used by the request models.
var tagRules = map[string]tagRule{
	"required":  {format: "%s is required"},
	"uppercase": {format: "%s must be upper case"},
	"oneof":     {format: "%s must be one of: %s", param: "options"},
	"gte":       {format: "%s must be at least %s", param: "min"},
	"lte":       {format: "%s must be at most %s", param: "max"},
}

// ReadAndValidateRequest binds path, query and body into req, fills
// `default` tags, then validates. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	err := c.Bind(req)
	if err == nil {
		err = defaults.Set(req)
	}
	if err == nil {
		err = validate.StructCtx(c.Request().Context(), req)
	}
	if err == nil {
		return nil
	}
	return toValidationErrors(err)
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, fieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: fe.Field(),
	}
	rule, ok := tagRules[fe.Tag()]
	if !ok {
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		return ve
	}
	if rule.param == "" {
		ve.Message = fmt.Sprintf(rule.format, fe.Field())
		return ve
	}

	arg := fe.Param()
	var value interface{} = arg
	if fe.Tag() == "oneof" {
		value = strings.Fields(arg)
		arg = strings.Join(strings.Fields(arg), ", ")
	}
	ve.Message = fmt.Sprintf(rule.format, fe.Field(), arg)
	ve.Params = map[string]interface{}{rule.param: value}
	return ve
}
