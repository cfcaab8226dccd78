// Package fontdata shares raw font file bytes across a process.
//
// Font files are large and the same file is typically referenced by many
// font handles: a collection file holds several faces, and many text runs
// refer to the same face. This package makes sure each distinct file is
// read from disk at most once while its bytes are in use, and that every
// consumer sees the same immutable buffer.
//
// # Resources and identifiers
//
// A FontID names a font: either a face of a locally installed file
// (LocalFont) or a web font identified by URL (WebFont). Several FontIDs map
// to the same ResourceID, which names the bytes themselves:
//
//	regular := fontdata.LocalFont(fontdata.LocalFontID{Path: "/fonts/Noto.ttc", VariationIndex: 0})
//	bold := fontdata.LocalFont(fontdata.LocalFontID{Path: "/fonts/Noto.ttc", VariationIndex: 1})
//	regular.Resource() == bold.Resource() // true
//
// # Store
//
// A Store maps ResourceIDs to Data. Entries are held through weak pointers,
// so a buffer lives exactly as long as something references it. Two kinds
// of owners keep buffers alive: Templates that loaded them, and a small
// recency cache of the most recently published buffers (24 by default).
//
//	store := fontdata.Default()
//	data, err := store.GetOrLoad(ctx, fontdata.PathResource("/fonts/Noto.ttc"))
//
// Concurrent GetOrLoad calls for the same resource share one read. The
// store's lock is never held during I/O, so loads of different resources
// proceed in parallel.
//
// Only path resources are read by the store. Web font bytes are produced
// elsewhere (see the webfont package) and published with Insert.
//
// # Templates
//
// A Template is a per-font handle that loads its bytes lazily through a
// store and then holds them:
//
//	tmpl := fontdata.NewTemplate(regular)
//	data, err := tmpl.Bytes(ctx)
//	if d, ok := tmpl.BytesIfInMemory(); ok {
//	    // never performs I/O
//	}
//
// # Errors
//
// Read failures are returned as platform errors from
// github.com/jmgilman/go/errors with CodeNotFound, CodeForbidden or
// CodeInternal. The underlying io/fs error remains reachable through
// errors.Is. Requesting a URL resource that was never inserted is a
// programming error and panics.
package fontdata
