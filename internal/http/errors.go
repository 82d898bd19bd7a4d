package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoOwner):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnknownSensorKind),
		errors.Is(err, domain.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOwnershipConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		msg = domain.ErrStorage.Error()
	}
	writeJSON(w, status, Fail(msg))
}
