// Package catalog reads declarative font catalogs.
//
// A catalog lists the local font faces and web fonts an application wants
// registered. It can be written in CUE, YAML or JSON; every format is
// validated against the same embedded CUE schema before it is decoded.
//
//	version: "v1"
//	local: [
//	    {path: "/usr/share/fonts/dejavu/DejaVuSans.ttf"},
//	    {path: "/usr/share/fonts/noto/NotoSansCJK.ttc", index: 1},
//	]
//	web: [
//	    {url: "https://fonts.example.com/inter/Inter.woff2", digest: "sha256:..."},
//	]
package catalog

import (
	"context"
	_ "embed"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/fontdata"
	"github.com/jmgilman/go/fontdata/internal/logging"
	"github.com/jmgilman/go/fontdata/webfont"
)

//go:embed schema.cue
var schemaSource []byte

// Catalog is a decoded font catalog.
type Catalog struct {
	Version string            `json:"version,omitempty"`
	Local   []LocalEntry      `json:"local,omitempty"`
	Web     []webfont.Request `json:"web,omitempty"`
}

// LocalEntry is a local font face.
type LocalEntry struct {
	Path           string `json:"path"`
	Index          int    `json:"index"`
	PostScriptName string `json:"postscript_name,omitempty"`
}

// FontID returns the entry's font identifier.
func (e LocalEntry) FontID() fontdata.FontID {
	return fontdata.LocalFont(fontdata.LocalFontID{
		Path:           e.Path,
		VariationIndex: e.Index,
		PostScriptName: e.PostScriptName,
	})
}

// Loader reads catalogs from a filesystem. A Loader is not safe for
// concurrent use.
type Loader struct {
	fs     core.ReadFS
	cueCtx *cue.Context
	schema cue.Value
	logger *logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.FromSlog(logger)
	}
}

// NewLoader creates a Loader reading from fsys.
func NewLoader(fsys core.ReadFS, opts ...Option) (*Loader, error) {
	l := &Loader{
		fs:     fsys,
		cueCtx: cuecontext.New(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}

	schema := l.cueCtx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeCUEBuildFailed, "failed to compile catalog schema")
	}
	l.schema = schema.LookupPath(cue.ParsePath("#Catalog"))

	return l, nil
}

// Load reads, validates and decodes the catalog at name. The format is
// chosen by extension: .cue, .json, .yaml or .yml.
func (l *Loader) Load(ctx context.Context, name string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := l.fs.ReadFile(name)
	if err != nil {
		code := platformerrors.CodeCUELoadFailed
		if platformerrors.Is(err, fs.ErrNotExist) {
			code = platformerrors.CodeNotFound
		}
		return nil, platformerrors.WrapWithContext(err, code, "failed to read catalog",
			map[string]interface{}{"file_path": name})
	}

	c, err := l.Parse(ctx, name, data)
	if err != nil {
		return nil, err
	}

	l.logger.WithOperation(logging.OpCatalog).Info(ctx, "font catalog loaded",
		"file_path", name,
		"local", len(c.Local),
		"web", len(c.Web),
		"duration_ms", time.Since(start).Milliseconds())
	return c, nil
}

// Parse validates and decodes catalog data. name is used to choose the
// format and in error messages.
func (l *Loader) Parse(ctx context.Context, name string, data []byte) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := l.compile(name, data)
	if err != nil {
		return nil, err
	}

	unified := l.schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeCUEValidationFailed,
			"catalog does not match schema", map[string]interface{}{
				"file_path": name,
				"details":   cueerrors.Details(err, nil),
			})
	}

	var c Catalog
	if err := unified.Decode(&c); err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeCUEDecodeFailed,
			"failed to decode catalog", map[string]interface{}{"file_path": name})
	}
	return &c, nil
}

func (l *Loader) compile(name string, data []byte) (cue.Value, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".cue", ".json":
		v := l.cueCtx.CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return cue.Value{}, platformerrors.WrapWithContext(err, platformerrors.CodeCUEBuildFailed,
				"failed to compile catalog", map[string]interface{}{"file_path": name})
		}
		return v, nil

	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return cue.Value{}, platformerrors.WrapWithContext(err, platformerrors.CodeInvalidConfig,
				"failed to parse catalog YAML", map[string]interface{}{"file_path": name})
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
		v := l.cueCtx.Encode(doc)
		if err := v.Err(); err != nil {
			return cue.Value{}, platformerrors.WrapWithContext(err, platformerrors.CodeCUEBuildFailed,
				"failed to convert catalog YAML", map[string]interface{}{"file_path": name})
		}
		return v, nil

	default:
		return cue.Value{}, platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeInvalidInput, "unsupported catalog format"),
			"file_path", name)
	}
}

// FontIDs returns the identifiers of every font in the catalog, local
// fonts first.
func (c *Catalog) FontIDs() ([]fontdata.FontID, error) {
	ids := make([]fontdata.FontID, 0, len(c.Local)+len(c.Web))
	for _, e := range c.Local {
		ids = append(ids, e.FontID())
	}
	for _, w := range c.Web {
		id, err := fontdata.ParseWebFont(w.URL)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Templates builds templates for every font in the catalog. Local fonts
// load lazily through store; web fonts are fetched by loader, which must
// publish into the same store.
func (c *Catalog) Templates(ctx context.Context, store *fontdata.Store, loader *webfont.Loader) ([]*fontdata.Template, error) {
	out := make([]*fontdata.Template, 0, len(c.Local)+len(c.Web))
	for _, e := range c.Local {
		out = append(out, fontdata.NewTemplate(e.FontID(), fontdata.WithTemplateStore(store)))
	}

	if len(c.Web) == 0 {
		return out, nil
	}
	if loader == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "catalog lists web fonts but no loader was given")
	}

	web, err := loader.FetchAll(ctx, c.Web)
	if err != nil {
		return nil, err
	}
	return append(out, web...), nil
}
