package job

import "errors"

var (
	// ErrNotFound is returned for unknown or already reaped job ids.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyExists guards against duplicate job ids on create.
	ErrAlreadyExists = errors.New("job already exists")
)
