package errors

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalid          = errors.New("invalid request")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrDecode           = errors.New("audio decode failed")
	ErrDuration         = errors.New("audio duration out of bounds")
	ErrTooMany          = errors.New("too many requests")
	ErrTimeout          = errors.New("processing timeout")
	ErrBackendNotReady  = errors.New("analysis backend not ready")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrStoreUnavailable = errors.New("backing store unavailable")
	ErrInternal         = errors.New("internal")
)

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
