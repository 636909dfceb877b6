package errors

// Stable error codes shared across the engine. Handlers map these to HTTP
// statuses; services never return raw gorm or provider errors to callers.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrValidation      = "VALIDATION"
	ErrConflict        = "CONFLICT"
	ErrForbidden       = "FORBIDDEN"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrGateway         = "GATEWAY"
)
