// Package webfont produces the bytes of web fonts and publishes them into a
// fontdata.Store.
//
// The store never fetches web fonts itself; it only reads local files. A
// Loader fetches a web font from a Source, optionally verifies its digest,
// and inserts the bytes under the font's URL so that every template for
// that URL shares them.
//
// Basic usage:
//
//	src := webfont.NewFSSource(billy.NewLocal(), "/var/cache/webfonts")
//	loader := webfont.NewLoader(src)
//
//	tmpl, err := loader.Load(ctx, webfont.Request{
//	    URL:    "https://fonts.example.com/inter/Inter.woff2",
//	    Digest: "sha256:...",
//	})
package webfont

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"runtime"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jmgilman/go/fontdata"
	"github.com/jmgilman/go/fontdata/internal/logging"
)

// DefaultMaxSize is the largest web font a Loader accepts by default.
const DefaultMaxSize = 32 << 20

// Request describes a web font to load.
type Request struct {
	// URL identifies the font. It must be absolute.
	URL string `json:"url" yaml:"url"`

	// Digest, when set, must match the fetched bytes.
	Digest digest.Digest `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Loader fetches web fonts and publishes them into a store.
type Loader struct {
	source      Source
	store       *fontdata.Store
	logger      *logging.Logger
	concurrency int
	maxSize     int64

	fetches singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithStore sets the store fonts are published into. Defaults to
// fontdata.Default().
func WithStore(s *fontdata.Store) Option {
	return func(l *Loader) {
		l.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.FromSlog(logger)
	}
}

// WithConcurrency bounds the concurrent fetches issued by FetchAll.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// WithMaxSize sets the largest accepted font, in bytes. Zero or a negative
// value disables the limit.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// NewLoader creates a Loader fetching from source.
func NewLoader(source Source, opts ...Option) *Loader {
	l := &Loader{
		source:      source,
		logger:      logging.NewNopLogger(),
		concurrency: runtime.GOMAXPROCS(0),
		maxSize:     DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = fontdata.Default()
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}
	return l
}

// Load returns a template holding the bytes of the requested web font,
// fetching them only if the store has no live copy.
func (l *Loader) Load(ctx context.Context, req Request) (*fontdata.Template, error) {
	id, err := fontdata.ParseWebFont(req.URL)
	if err != nil {
		return nil, err
	}
	if req.Digest != "" {
		if err := req.Digest.Validate(); err != nil {
			return nil, platformerrors.WithContext(
				platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "invalid web font digest"),
				"url", req.URL)
		}
	}

	resource := id.Resource()
	if d, ok := l.store.Lookup(resource); ok {
		if err := verify(req, d.Bytes()); err != nil {
			return nil, err
		}
		return fontdata.NewTemplate(id, fontdata.WithTemplateStore(l.store), fontdata.WithData(d.Bytes())), nil
	}

	logger := l.logger.WithOperation(logging.OpFetchWeb).WithResource(resource.String())
	start := time.Now()

	// The shared fetch outlives any single caller; each caller stops
	// waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := l.fetches.DoChan(resource.Name(), func() (interface{}, error) {
		return l.fetch(fetchCtx, req.URL)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		err := platformerrors.WithContext(
			platformerrors.Wrap(ctx.Err(), platformerrors.CodeTimeout, "web font fetch interrupted"),
			"url", req.URL)
		logger.Warn(ctx, "web font fetch abandoned", "error", err.Error())
		return nil, err
	}
	if res.Err != nil {
		logger.Warn(ctx, "web font fetch failed", "error", res.Err.Error())
		return nil, res.Err
	}
	b := res.Val.([]byte)

	if err := verify(req, b); err != nil {
		logger.Warn(ctx, "web font rejected", "error", err.Error())
		return nil, err
	}

	tmpl := fontdata.NewTemplate(id, fontdata.WithTemplateStore(l.store), fontdata.WithData(b))

	// Another producer may have published bytes for this URL since the
	// lookup above; the template then holds those instead of b.
	if d, ok := tmpl.BytesIfInMemory(); ok && !sameBuffer(d.Bytes(), b) {
		if err := verify(req, d.Bytes()); err != nil {
			logger.Warn(ctx, "resident web font rejected", "error", err.Error())
			return nil, err
		}
	}

	logger.Info(ctx, "web font loaded",
		"size", len(b),
		"shared", res.Shared,
		"duration_ms", time.Since(start).Milliseconds())

	return tmpl, nil
}

// FetchAll loads every request concurrently. The templates are returned in
// request order. The first error stops the remaining requests from waiting;
// fetches already in flight still complete for any other caller sharing
// them.
func (l *Loader) FetchAll(ctx context.Context, reqs []Request) ([]*fontdata.Template, error) {
	out := make([]*fontdata.Template, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			tmpl, err := l.Load(gctx, req)
			if err != nil {
				return err
			}
			out[i] = tmpl
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) fetch(ctx context.Context, locator string) ([]byte, error) {
	b, err := l.source.Fetch(ctx, locator, l.maxSize)
	if err != nil {
		var perr platformerrors.PlatformError
		switch {
		case errors.Is(err, ErrTooLarge):
			perr = platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "web font exceeds maximum size")
		case errors.Is(err, fs.ErrNotExist):
			perr = platformerrors.Wrap(err, platformerrors.CodeNotFound, "web font not found")
		case errors.Is(err, fs.ErrPermission):
			perr = platformerrors.Wrap(err, platformerrors.CodeForbidden, "web font not accessible")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			perr = platformerrors.Wrap(err, platformerrors.CodeTimeout, "web font fetch interrupted")
		default:
			perr = platformerrors.Wrap(err, platformerrors.CodeNetwork, "failed to fetch web font")
		}
		return nil, platformerrors.WithContext(perr, "url", locator)
	}

	if l.maxSize > 0 && int64(len(b)) > l.maxSize {
		return nil, platformerrors.WithContextMap(
			platformerrors.New(platformerrors.CodeInvalidInput, "web font exceeds maximum size"),
			map[string]interface{}{
				"url":      locator,
				"size":     len(b),
				"max_size": l.maxSize,
			})
	}
	return b, nil
}

// sameBuffer reports whether a and b share their backing array.
func sameBuffer(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func verify(req Request, b []byte) error {
	if req.Digest == "" {
		return nil
	}

	verifier := req.Digest.Verifier()
	_, _ = verifier.Write(b)
	if verifier.Verified() {
		return nil
	}

	return platformerrors.WithContextMap(
		platformerrors.New(platformerrors.CodeInvalidInput, "web font digest mismatch"),
		map[string]interface{}{
			"url":      req.URL,
			"expected": req.Digest.String(),
			"actual":   digest.FromBytes(b).String(),
		})
}
