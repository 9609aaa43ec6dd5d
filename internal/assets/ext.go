// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"net/url"
	"path"
	"strings"
)

// extensions maps media types to file extensions. The table is fixed so
// archive member names do not depend on the host mime database. Non-image
// types cover servers that answer an image URL with a generic or error
// body.
var extensions = map[string]string{
	"application/octet-stream": ".bin",
	"application/pdf":          ".pdf",
	"application/json":         ".json",
	"text/html":                ".html",
	"text/plain":               ".txt",

	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/jpg":                ".jpg",
	"image/pjpeg":              ".jpg",
	"image/gif":                ".gif",
	"image/bmp":                ".bmp",
	"image/x-ms-bmp":           ".bmp",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/tiff":               ".tiff",
	"image/x-icon":             ".ico",
	"image/avif":               ".avif",
	"image/vnd.microsoft.icon": ".ico",
}

// ExtensionFor returns the extension for a media type, ignoring any
// parameters, or "" when the type is unknown.
func ExtensionFor(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	return extensions[strings.ToLower(strings.TrimSpace(mt))]
}

// urlExtension returns the extension of the path component of raw.
func urlExtension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
