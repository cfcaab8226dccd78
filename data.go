package fontdata

import (
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
)

// Data is an immutable, shared block of font bytes.
//
// A *Data is kept alive only by its strong owners: Templates that loaded it
// and the store's recency cache. The store's resident map observes it
// through a weak pointer, so once every owner is gone the bytes become
// collectable and the next lookup reloads them.
type Data struct {
	bytes []byte

	digestOnce sync.Once
	digest     digest.Digest
}

func newData(b []byte) *Data {
	if b == nil {
		b = []byte{}
	}
	return &Data{bytes: b}
}

// Bytes returns the font bytes. The returned slice is shared and must not
// be modified.
func (d *Data) Bytes() []byte { return d.bytes }

// Len returns the number of bytes.
func (d *Data) Len() int { return len(d.bytes) }

// Digest returns the sha256 digest of the bytes, computed on first use.
func (d *Data) Digest() digest.Digest {
	d.digestOnce.Do(func() {
		d.digest = digest.FromBytes(d.bytes)
	})
	return d.digest
}

// String returns a short description that does not include the bytes.
func (d *Data) String() string {
	return fmt.Sprintf("[%d bytes]", len(d.bytes))
}
