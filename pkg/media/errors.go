package media

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid media configuration")
	ErrInvalidKey     = errors.New("invalid media key")
	ErrNotFound       = errors.New("media object not found")
	ErrWriteFailed    = errors.New("failed to write media object")
	ErrDeleteFailed   = errors.New("failed to delete media object")
	ErrListFailed     = errors.New("failed to list media objects")
	ErrAccessDenied   = errors.New("media storage access denied")
	ErrBucketNotFound = errors.New("media bucket not found")
	ErrUnavailable    = errors.New("media storage temporarily unavailable")
)
