package fontdata

import (
	"errors"
	"io/fs"

	platformerrors "github.com/jmgilman/go/errors"
)

// ErrLoadAbandoned is returned to a caller that stopped waiting for another
// goroutine's load because its context was done.
var ErrLoadAbandoned = errors.New("fontdata: abandoned wait for in-flight load")

// wrapReadError classifies a failed read of a font resource.
// The original error stays reachable through errors.Is and errors.As.
func wrapReadError(err error, id ResourceID) error {
	if err == nil {
		return nil
	}

	var perr platformerrors.PlatformError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		perr = platformerrors.Wrap(err, platformerrors.CodeNotFound, "font file not found")
	case errors.Is(err, fs.ErrPermission):
		perr = platformerrors.Wrap(err, platformerrors.CodeForbidden, "font file not readable")
	default:
		perr = platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to read font file")
	}

	return platformerrors.WithContextMap(perr, map[string]interface{}{
		"resource": id.Name(),
		"kind":     id.Kind().String(),
	})
}

// invalidInput builds a CodeInvalidInput error with a single context field.
func invalidInput(cause error, message, key string, value interface{}) error {
	var perr platformerrors.PlatformError
	if cause != nil {
		perr = platformerrors.Wrap(cause, platformerrors.CodeInvalidInput, message)
	} else {
		perr = platformerrors.New(platformerrors.CodeInvalidInput, message)
	}
	return platformerrors.WithContext(perr, key, value)
}

// IsNotFound reports whether err was caused by a missing font file.
func IsNotFound(err error) bool {
	return platformerrors.GetCode(err) == platformerrors.CodeNotFound
}
