package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrInvalid
	ErrPayloadTooLarge
	ErrUnprocessableAudio
	ErrTooMany
	ErrTimeout
	ErrBackendNotReady
	ErrInternal
)
