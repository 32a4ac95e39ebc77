package model

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by every resolver. Wrap with fmt.Errorf("...: %w", ErrX)
// and test with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrUpstreamFormat      = errors.New("unexpected upstream response format")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrAllSourcesExhausted = errors.New("no streaming data found from any source")
	ErrInternal            = errors.New("internal server error")
)

// HTTPStatus maps an error from the taxonomy to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAllSourcesExhausted), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstreamFormat), errors.Is(err, ErrUpstreamUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
