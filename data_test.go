package fontdata

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
)

func TestData(t *testing.T) {
	d := newData([]byte("hello"))

	assert.Equal(t, []byte("hello"), d.Bytes())
	assert.Equal(t, 5, d.Len())
	assert.Equal(t, digest.FromString("hello"), d.Digest())
	assert.Equal(t, d.Digest(), d.Digest())
	assert.Equal(t, "[5 bytes]", d.String())
}

func TestData_Empty(t *testing.T) {
	d := newData(nil)

	assert.NotNil(t, d.Bytes())
	assert.Equal(t, 0, d.Len())
	assert.NoError(t, d.Digest().Validate())
}
