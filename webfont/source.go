package webfont

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jmgilman/go/fs/core"
)

// ErrTooLarge is returned by a Source when a font exceeds the size limit
// passed to Fetch.
var ErrTooLarge = errors.New("webfont: font exceeds maximum size")

// Source fetches the bytes of a web font by URL.
//
// When maxSize is positive, Fetch must reject fonts larger than maxSize
// with an error wrapping ErrTooLarge, and should do so before reading the
// body.
type Source interface {
	Fetch(ctx context.Context, locator string, maxSize int64) ([]byte, error)
}

func tooLarge(key string, size, maxSize int64) error {
	return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, key, size, maxSize)
}

// objectKey maps a web font URL to a storage key of the form host/path.
// Query strings and fragments are ignored.
func objectKey(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	key := path.Clean("/" + u.Host + "/" + u.Path)
	return strings.TrimPrefix(key, "/"), nil
}

func joinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// FSSource serves web fonts mirrored onto a filesystem, laid out as
// root/host/path.
type FSSource struct {
	fsys core.ReadFS
	root string
}

// NewFSSource creates a Source backed by fsys under root.
func NewFSSource(fsys core.ReadFS, root string) *FSSource {
	return &FSSource{fsys: fsys, root: root}
}

// Fetch reads the mirrored copy of locator. The file is stat'ed first so an
// oversized font is rejected without being read.
func (s *FSSource) Fetch(ctx context.Context, locator string, maxSize int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := objectKey(locator)
	if err != nil {
		return nil, err
	}
	name := path.Join("/", s.root, key)

	if maxSize > 0 {
		info, err := s.fsys.Stat(name)
		if err != nil {
			return nil, err
		}
		if info.Size() > maxSize {
			return nil, tooLarge(name, info.Size(), maxSize)
		}
	}

	b, err := s.fsys.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(b)) > maxSize {
		return nil, tooLarge(name, int64(len(b)), maxSize)
	}
	return b, nil
}
