package catalog

import (
	"context"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fontdata"
	"github.com/jmgilman/go/fontdata/webfont"
)

const cueCatalog = `
version: "v1"
local: [
	{path: "/fonts/DejaVuSans.ttf"},
	{path: "/fonts/NotoSansCJK.ttc", index: 1, postscript_name: "NotoSansCJKjp-Regular"},
]
web: [
	{url: "https://fonts.example.com/inter.woff2"},
]
`

const yamlCatalog = `
version: v1
local:
  - path: /fonts/DejaVuSans.ttf
  - path: /fonts/NotoSansCJK.ttc
    index: 1
    postscript_name: NotoSansCJKjp-Regular
web:
  - url: https://fonts.example.com/inter.woff2
`

const jsonCatalog = `{
  "version": "v1",
  "local": [
    {"path": "/fonts/DejaVuSans.ttf"},
    {"path": "/fonts/NotoSansCJK.ttc", "index": 1, "postscript_name": "NotoSansCJKjp-Regular"}
  ],
  "web": [
    {"url": "https://fonts.example.com/inter.woff2"}
  ]
}`

func newTestLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	fsys := billy.NewMemory()
	for name, data := range files {
		require.NoError(t, fsys.WriteFile(name, []byte(data), 0o644))
	}
	l, err := NewLoader(fsys)
	require.NoError(t, err)
	return l
}

func expectedCatalog() *Catalog {
	return &Catalog{
		Version: "v1",
		Local: []LocalEntry{
			{Path: "/fonts/DejaVuSans.ttf"},
			{Path: "/fonts/NotoSansCJK.ttc", Index: 1, PostScriptName: "NotoSansCJKjp-Regular"},
		},
		Web: []webfont.Request{
			{URL: "https://fonts.example.com/inter.woff2"},
		},
	}
}

func TestLoader_Load(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"/catalog/fonts.cue":  cueCatalog,
		"/catalog/fonts.yaml": yamlCatalog,
		"/catalog/fonts.yml":  yamlCatalog,
		"/catalog/fonts.json": jsonCatalog,
	})

	for _, name := range []string{
		"/catalog/fonts.cue",
		"/catalog/fonts.yaml",
		"/catalog/fonts.yml",
		"/catalog/fonts.json",
	} {
		t.Run(name, func(t *testing.T) {
			c, err := l.Load(context.Background(), name)
			require.NoError(t, err)
			assert.Equal(t, expectedCatalog(), c)
		})
	}
}

func TestLoader_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		code platformerrors.ErrorCode
	}{
		{
			name: "missing file",
			file: "/catalog/missing.cue",
			code: platformerrors.CodeNotFound,
		},
		{
			name: "unsupported extension",
			file: "/catalog/fonts.toml",
			data: `local = []`,
			code: platformerrors.CodeInvalidInput,
		},
		{
			name: "cue syntax error",
			file: "/catalog/broken.cue",
			data: `local: [`,
			code: platformerrors.CodeCUEBuildFailed,
		},
		{
			name: "yaml syntax error",
			file: "/catalog/broken.yaml",
			data: "local: [\n  - path",
			code: platformerrors.CodeInvalidConfig,
		},
		{
			name: "empty path",
			file: "/catalog/empty.cue",
			data: `local: [{path: ""}]`,
			code: platformerrors.CodeCUEValidationFailed,
		},
		{
			name: "negative index",
			file: "/catalog/negative.json",
			data: `{"local": [{"path": "/a.ttf", "index": -1}]}`,
			code: platformerrors.CodeCUEValidationFailed,
		},
		{
			name: "relative web url",
			file: "/catalog/relative.yaml",
			data: "web:\n  - url: fonts/inter.woff2\n",
			code: platformerrors.CodeCUEValidationFailed,
		},
		{
			name: "malformed digest",
			file: "/catalog/digest.cue",
			data: `web: [{url: "https://x/a.woff2", digest: "not a digest"}]`,
			code: platformerrors.CodeCUEValidationFailed,
		},
		{
			name: "unknown field",
			file: "/catalog/unknown.cue",
			data: `fonts: []`,
			code: platformerrors.CodeCUEValidationFailed,
		},
		{
			name: "unknown version",
			file: "/catalog/version.cue",
			data: `version: "v2"`,
			code: platformerrors.CodeCUEValidationFailed,
		},
	}

	files := make(map[string]string)
	for _, tt := range tests {
		if tt.data != "" {
			files[tt.file] = tt.data
		}
	}
	l := newTestLoader(t, files)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := l.Load(context.Background(), tt.file)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, tt.code, platformerrors.GetCode(err))
		})
	}
}

func TestLoader_ParseEmptyYAML(t *testing.T) {
	l := newTestLoader(t, nil)
	c, err := l.Parse(context.Background(), "empty.yaml", []byte(""))
	require.NoError(t, err)
	assert.Empty(t, c.Local)
	assert.Empty(t, c.Web)
}

func TestCatalog_FontIDs(t *testing.T) {
	ids, err := expectedCatalog().FontIDs()
	require.NoError(t, err)
	require.Len(t, ids, 3)

	local, ok := ids[1].Local()
	require.True(t, ok)
	assert.Equal(t, 1, local.VariationIndex)
	assert.Equal(t, fontdata.PathResource("/fonts/NotoSansCJK.ttc"), ids[1].Resource())
	assert.Equal(t, fontdata.URLResource("https://fonts.example.com/inter.woff2"), ids[2].Resource())
}

func TestCatalog_Templates(t *testing.T) {
	fsys := billy.NewMemory()
	require.NoError(t, fsys.WriteFile("/fonts/DejaVuSans.ttf", []byte("dejavu"), 0o644))
	require.NoError(t, fsys.WriteFile("/fonts/NotoSansCJK.ttc", []byte("noto"), 0o644))
	require.NoError(t, fsys.WriteFile("/mirror/fonts.example.com/inter.woff2", []byte("inter"), 0o644))

	store := fontdata.New(fontdata.WithFS(fsys))
	loader := webfont.NewLoader(webfont.NewFSSource(fsys, "/mirror"), webfont.WithStore(store))

	c := expectedCatalog()
	c.Web[0].Digest = digest.FromString("inter")

	templates, err := c.Templates(context.Background(), store, loader)
	require.NoError(t, err)
	require.Len(t, templates, 3)

	for i, want := range []string{"dejavu", "noto", "inter"} {
		d, err := templates[i].Bytes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, string(d.Bytes()))
	}

	_, err = c.Templates(context.Background(), store, nil)
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
}
