package samples

import (
	"errors"
	"net/http"

	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
)

// ErrInvalidInput marks request data the tools refuse before calling the backend.
var ErrInvalidInput = errors.New("invalid input")

// respondError renders domain failures as 400 and defers the rest to httpx.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStatusRequired):
		httpx.Detail(w, http.StatusBadRequest, "Please select a submit status")
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownUnit),
		errors.Is(err, ErrIncompatibleUnit),
		errors.Is(err, ErrUnknownStatus):
		httpx.Detail(w, http.StatusBadRequest, err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
