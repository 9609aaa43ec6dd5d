// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AssetKind identifies how an image is referenced from Markdown.
type AssetKind string

const (
	// AssetEmbedded is an image carried inline as a base64 data URI.
	AssetEmbedded AssetKind = "embedded"

	// AssetRemote is an image referenced by an HTTP(S) URL or a
	// root-relative path.
	AssetRemote AssetKind = "remote"

	// AssetPage is a raster image of a document page supplied by a
	// page renderer.
	AssetPage AssetKind = "page"
)

// AssetReference is a located image reference in a Markdown string.
type AssetReference struct {
	Kind AssetKind `json:"kind" yaml:"kind"`

	// Span is the full matched image link, e.g. "![x](data:image/png;base64,QUJD)".
	Span string `json:"span" yaml:"span"`

	// Target is the link target: the data URI for embedded images,
	// the URL or path for remote images.
	Target string `json:"target" yaml:"target"`

	// MediaType is the declared media type of an embedded image
	// (e.g. "image/png"). Empty for remote references.
	MediaType string `json:"media_type,omitempty" yaml:"media_type,omitempty"`

	// Start and End are byte offsets of Target within the scanned string.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// MaterializedAsset is an image written out as a standalone file.
type MaterializedAsset struct {
	// Filename is unique within a bundle and carries no path components.
	Filename string `json:"filename" yaml:"filename"`

	Content []byte `json:"-" yaml:"-"`

	Source AssetReference `json:"source" yaml:"source"`
}

// PageImage is one raster image produced by an external page renderer.
// Page is 1-based.
type PageImage struct {
	Page      int
	MediaType string
	Data      []byte
}

// OutputBundle is the final result of one conversion: the rewritten
// Markdown and the assets it references. It is built per request and
// discarded once the archive has been written.
type OutputBundle struct {
	// MarkdownName is the archive member name of the Markdown document.
	MarkdownName string
	Markdown     string
	Assets       []MaterializedAsset
}

// Filenames returns the archive member names in write order.
func (b OutputBundle) Filenames() []string {
	names := make([]string, 0, len(b.Assets)+1)
	names = append(names, b.MarkdownName)
	for _, a := range b.Assets {
		names = append(names, a.Filename)
	}
	return names
}
