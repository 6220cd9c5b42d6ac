package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrTimeout      = errors.New("backend timed out")
	ErrBadGateway   = errors.New("backend returned a gateway error")
	ErrUnauthorized = errors.New("backend rejected the session")
	ErrForbidden    = errors.New("backend denied access")
	ErrBadResponse  = errors.New("unexpected backend response")
)

// StatusError carries a client-side error reported by the backend that is
// safe to relay, such as a rejected OTP code.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// classifyTransport maps a failed round trip onto the error taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrBadGateway, status)
	case status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrTimeout, status)
	case status >= 400 && status < 500:
		if message == "" {
			message = http.StatusText(status)
		}
		return &StatusError{Status: status, Message: message}
	default:
		return fmt.Errorf("%w: status %d", ErrBadResponse, status)
	}
}

// IsTimeout reports whether err is a timeout from the backend.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsTransient reports whether err may clear up on its own: timeouts and an
// unreachable or overloaded backend.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrBadGateway)
}

// HTTPStatus maps a backend error to the status and message relayed to the
// browser. ok is false for errors outside the taxonomy.
func HTTPStatus(err error) (status int, message string, ok bool) {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status, se.Message, true
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Session expired, please log in again", true
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Access denied", true
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout, "The marketplace is taking too long to respond, please try again", true
	case errors.Is(err, ErrBadGateway):
		return http.StatusBadGateway, "The marketplace is temporarily unavailable, please try again", true
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "Could not reach the marketplace, please try again later", true
	case errors.Is(err, ErrBadResponse):
		return http.StatusInternalServerError, "Unexpected response from the marketplace", true
	}
	return 0, "", false
}
