package fontdata

import (
	"fmt"
	"net/url"
)

// ResourceKind distinguishes the two kinds of font data resources.
type ResourceKind uint8

const (
	// KindPath identifies bytes read from a local file path.
	KindPath ResourceKind = iota + 1
	// KindURL identifies bytes supplied externally by locator string,
	// such as an already-fetched web font.
	KindURL
)

// String returns a string representation of the ResourceKind.
func (k ResourceKind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// ResourceID identifies a distinct font data resource.
//
// It differs from FontID because several fonts can share one resource: a
// single file may contain more than one face variation. ResourceID is
// comparable and is used directly as a map key; two values are equal when
// both their kind and name are equal.
type ResourceID struct {
	kind ResourceKind
	name string
}

// PathResource returns the ResourceID for a font file on the local filesystem.
func PathResource(path string) ResourceID {
	return ResourceID{kind: KindPath, name: path}
}

// URLResource returns the ResourceID for externally supplied font data.
func URLResource(locator string) ResourceID {
	return ResourceID{kind: KindURL, name: locator}
}

// Kind returns the resource kind.
func (r ResourceID) Kind() ResourceKind { return r.kind }

// Name returns the path or locator of the resource.
func (r ResourceID) Name() string { return r.name }

// IsZero reports whether r is the zero ResourceID.
func (r ResourceID) IsZero() bool { return r.kind == 0 }

// String returns "kind:name".
func (r ResourceID) String() string {
	return r.kind.String() + ":" + r.name
}

// LocalFontID identifies a single face of a font installed on this system.
type LocalFontID struct {
	// Path is the location of the font file.
	Path string
	// VariationIndex selects the face within a collection file.
	VariationIndex int
	// PostScriptName is the face's PostScript name, when known.
	PostScriptName string
}

// FontID uniquely identifies a font, which is either a local font face or a
// web font. Construct one with LocalFont, WebFont or ParseWebFont. FontID is
// comparable.
type FontID struct {
	local LocalFontID
	web   string
	kind  ResourceKind
}

// LocalFont returns the FontID of a local font face.
func LocalFont(id LocalFontID) FontID {
	return FontID{local: id, kind: KindPath}
}

// WebFont returns the FontID of a web font identified by its URL.
func WebFont(u *url.URL) FontID {
	if u == nil {
		panic("fontdata: WebFont called with nil URL")
	}
	return FontID{web: u.String(), kind: KindURL}
}

// ParseWebFont parses rawURL and returns the FontID of the web font.
func ParseWebFont(rawURL string) (FontID, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return FontID{}, invalidInput(err, "invalid web font URL", "url", rawURL)
	}
	if !u.IsAbs() {
		return FontID{}, invalidInput(nil, "web font URL must be absolute", "url", rawURL)
	}
	return WebFont(u), nil
}

// Local returns the local identifier and true when f names a local font.
func (f FontID) Local() (LocalFontID, bool) {
	return f.local, f.kind == KindPath
}

// URL returns the web font URL and true when f names a web font.
func (f FontID) URL() (*url.URL, bool) {
	if f.kind != KindURL {
		return nil, false
	}
	u, err := url.Parse(f.web)
	if err != nil {
		return nil, false
	}
	return u, true
}

// IsWeb reports whether f names a web font.
func (f FontID) IsWeb() bool { return f.kind == KindURL }

// Resource returns the ResourceID holding this font's bytes.
// Local fonts map to their file path and web fonts to their URL string.
func (f FontID) Resource() ResourceID {
	switch f.kind {
	case KindPath:
		return PathResource(f.local.Path)
	case KindURL:
		return URLResource(f.web)
	default:
		return ResourceID{}
	}
}

// String returns a human-readable form of the identifier.
func (f FontID) String() string {
	switch f.kind {
	case KindPath:
		if f.local.PostScriptName != "" {
			return fmt.Sprintf("local(%s#%d %s)", f.local.Path, f.local.VariationIndex, f.local.PostScriptName)
		}
		return fmt.Sprintf("local(%s#%d)", f.local.Path, f.local.VariationIndex)
	case KindURL:
		return "web(" + f.web + ")"
	default:
		return "none"
	}
}
