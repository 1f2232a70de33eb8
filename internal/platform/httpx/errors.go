package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// Rule renders a domain error as one of the sentinels above.
type Rule struct {
	Err error
	As  error
}

// Mapping is checked in order; the first matching rule wins.
type Mapping []Rule

// RespondError maps domain errors to HTTP responses using RFC7807.
// Domain errors listed in m are translated before matching.
func RespondError(w http.ResponseWriter, err error, m Mapping) {
	for _, rule := range m {
		if errors.Is(err, rule.Err) {
			respond(w, rule.As, err.Error())
			return
		}
	}
	respond(w, err, err.Error())
}

func respond(w http.ResponseWriter, class error, detail string) {
	switch {
	case errors.Is(class, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", detail)
	case errors.Is(class, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", detail)
	case errors.Is(class, ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", detail)
	case errors.Is(class, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	case errors.Is(class, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
