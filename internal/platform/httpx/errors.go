package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for the handler layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("access denied")
	ErrUnauthorized = errors.New("not authenticated")
)

// StatusCoder is implemented by errors that carry their own HTTP status, such as
// failures reported by the backend API.
type StatusCoder interface {
	error
	StatusCode() int
}

// RespondError maps errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	var coded StatusCoder
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &coded):
		Detail(w, coded.StatusCode(), coded.Error())
	case errors.As(err, &verrs):
		JSON(w, http.StatusBadRequest, ErrorBody{Detail: FieldErrors(verrs)})
	case errors.Is(err, ErrNotFound):
		Detail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		Detail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Detail(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, ErrUnauthorized):
		Detail(w, http.StatusUnauthorized, "Not authenticated")
	default:
		Detail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// FieldErrors flattens validator errors into a field -> tag map.
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		out[fieldErr.Field()] = fieldErr.Tag()
	}
	return out
}
