// Package discovery enumerates the fonts installed on a system.
//
// On systems with fontconfig, System asks fc-list for every installed face.
// ScanDir walks a directory tree instead, for systems without fontconfig
// or for bundled font directories. Both return fontdata.FontID values that
// can be turned into templates sharing a single store.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/fontdata"
	"github.com/jmgilman/go/fontdata/internal/logging"
)

// DefaultTimeout bounds a single fc-list invocation.
const DefaultTimeout = 30 * time.Second

const fcList = "fc-list"

// fcListFormat makes fc-list print one face per line as
// "file|index|postscriptname".
const fcListFormat = "%{file}|%{index}|%{postscriptname}\n"

var fontExtensions = []string{".ttf", ".otf", ".ttc", ".otc"}

// Discoverer finds installed fonts.
type Discoverer struct {
	fclist  *exec.CommandWrapper
	timeout time.Duration
	logger  *logging.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithExecutor sets the executor used to run fc-list.
func WithExecutor(e exec.Executor) Option {
	return func(d *Discoverer) {
		d.fclist = exec.NewWrapper(e, fcList)
	}
}

// WithTimeout bounds each fc-list invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logging.FromSlog(logger)
	}
}

// New creates a Discoverer.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		fclist:  exec.NewWrapper(exec.New(), fcList),
		timeout: DefaultTimeout,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// System returns every font face fontconfig knows about, sorted by path
// and variation index.
func (d *Discoverer) System(ctx context.Context) ([]fontdata.FontID, error) {
	logger := d.logger.WithOperation(logging.OpDiscover)
	start := time.Now()

	// Local settings reset after every run, so they are applied per call.
	result, err := d.fclist.Clone().
		WithContext(ctx).
		WithInheritEnv().
		WithTimeout(d.timeout.String()).
		Run("--format", fcListFormat)
	if err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeExecutionFailed,
			"failed to list system fonts", map[string]interface{}{
				"program": fcList,
			})
	}

	ids, skipped := parseFCList(result.Stdout)
	logger.Info(ctx, "system fonts discovered",
		"count", len(ids),
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds())

	return ids, nil
}

// parseFCList parses fc-list output produced with fcListFormat. Lines that
// are malformed or name unsupported files are skipped and counted.
func parseFCList(out string) ([]fontdata.FontID, int) {
	seen := make(map[fontdata.LocalFontID]struct{})
	var ids []fontdata.LocalFontID
	skipped := 0

	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, "|", 3)
		if len(fields) < 2 || !isFontFile(fields[0]) {
			skipped++
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || index < 0 {
			skipped++
			continue
		}

		local := fontdata.LocalFontID{Path: fields[0], VariationIndex: index}
		if len(fields) == 3 {
			local.PostScriptName = strings.TrimSpace(fields[2])
		}

		key := fontdata.LocalFontID{Path: local.Path, VariationIndex: local.VariationIndex}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, local)
	}

	return toFontIDs(ids), skipped
}

// ScanDir walks dir on fsys and returns a FontID for every font file found.
// Collection files yield only their first face.
func ScanDir(fsys core.ReadFS, dir string) ([]fontdata.FontID, error) {
	var ids []fontdata.LocalFontID

	walkFn := func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !isFontFile(p) {
			return nil
		}
		ids = append(ids, fontdata.LocalFontID{Path: p})
		return nil
	}

	var err error
	if walker, ok := fsys.(core.WalkFS); ok {
		err = walker.Walk(dir, walkFn)
	} else {
		err = fs.WalkDir(fsys, dir, walkFn)
	}
	if err != nil {
		code := platformerrors.CodeInternal
		if platformerrors.Is(err, fs.ErrNotExist) {
			code = platformerrors.CodeNotFound
		}
		return nil, platformerrors.WithContext(
			platformerrors.Wrap(err, code, "failed to scan font directory"), "dir", dir)
	}

	return toFontIDs(ids), nil
}

// Resources returns the distinct resources behind ids, in first-seen order.
// The result is suitable for fontdata.Store.Preload.
func Resources(ids []fontdata.FontID) []fontdata.ResourceID {
	seen := make(map[fontdata.ResourceID]struct{}, len(ids))
	out := make([]fontdata.ResourceID, 0, len(ids))
	for _, id := range ids {
		r := id.Resource()
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Templates builds one template per id, all loading through store.
func Templates(store *fontdata.Store, ids []fontdata.FontID) []*fontdata.Template {
	out := make([]*fontdata.Template, len(ids))
	for i, id := range ids {
		out[i] = fontdata.NewTemplate(id, fontdata.WithTemplateStore(store))
	}
	return out
}

func isFontFile(p string) bool {
	return slices.Contains(fontExtensions, strings.ToLower(path.Ext(p)))
}

func toFontIDs(locals []fontdata.LocalFontID) []fontdata.FontID {
	slices.SortFunc(locals, func(a, b fontdata.LocalFontID) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return a.VariationIndex - b.VariationIndex
	})

	ids := make([]fontdata.FontID, len(locals))
	for i, l := range locals {
		ids[i] = fontdata.LocalFont(l)
	}
	return ids
}
