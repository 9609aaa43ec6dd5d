// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns an input file or URL into a Markdown bundle. It
// selects a converter for the input, recovers from converter failures, and
// hands the Markdown to asset materialization and archiving.
package convert

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docbundle/pkg/types"
)

// imageExtensions are the inputs eligible for the captioning path.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

// Source is one conversion input: a local file or a URL.
type Source struct {
	Path string
	URL  string
	Info types.StreamInfo
}

// String names the source for logs and error messages.
func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

// DocumentConverter transforms a document into Markdown. Different backends
// (the email parser, the markitdown container) implement this interface.
type DocumentConverter interface {
	// Name identifies the converter in logs and errors.
	Name() string

	// Accepts reports whether the converter handles inputs described by info.
	Accepts(info types.StreamInfo) bool

	// Convert reads src and returns its Markdown rendering.
	Convert(ctx context.Context, src Source) (types.Document, error)
}

// Router dispatches each input to the first converter that accepts it.
type Router struct {
	converters []DocumentConverter
}

// NewRouter builds a Router trying converters in order.
func NewRouter(converters ...DocumentConverter) *Router {
	return &Router{converters: converters}
}

func (r *Router) Name() string { return "Router" }

// Accepts reports whether any routed converter accepts info.
func (r *Router) Accepts(info types.StreamInfo) bool {
	for _, c := range r.converters {
		if c.Accepts(info) {
			return true
		}
	}
	return false
}

// Convert runs the first accepting converter. When none accepts the input
// the result is a *types.MissingDependencyError.
func (r *Router) Convert(ctx context.Context, src Source) (types.Document, error) {
	for _, c := range r.converters {
		if c.Accepts(src.Info) {
			return c.Convert(ctx, src)
		}
	}
	ext := src.Info.NormalizedExtension()
	if ext == "" {
		ext = "unknown"
	}
	return types.Document{}, &types.MissingDependencyError{
		Converter: r.Name(),
		Feature:   "document",
		Extension: ext,
	}
}

// InfoFor classifies an input by file name. A declared media type wins
// over one guessed from the extension.
func InfoFor(filename, mediaType string) types.StreamInfo {
	ext := strings.ToLower(filepath.Ext(filename))
	if mediaType == "" && ext != "" {
		mediaType = mime.TypeByExtension(ext)
	}
	return types.StreamInfo{
		MIMEType:  mediaType,
		Extension: ext,
		Filename:  filepath.Base(filename),
	}
}

// InfoForURL classifies a URL input by the extension of its path.
func InfoForURL(raw string) types.StreamInfo {
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return types.StreamInfo{Extension: strings.ToLower(path.Ext(p))}
}

// IsImage reports whether info describes an image upload.
func IsImage(info types.StreamInfo) bool {
	return imageExtensions[info.NormalizedExtension()]
}
