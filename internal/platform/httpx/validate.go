package httpx

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Bind decodes the request body into target and validates it.
func Bind(r *http.Request, v *validator.Validate, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return &BadRequestError{Message: "Invalid JSON body: " + err.Error()}
	}
	return v.Struct(target)
}

// BadRequestError is returned for malformed request payloads.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// StatusCode implements StatusCoder.
func (e *BadRequestError) StatusCode() int { return http.StatusBadRequest }
