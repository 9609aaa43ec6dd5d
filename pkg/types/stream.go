// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// StreamInfo classifies an input stream for converter selection.
type StreamInfo struct {
	// MIMEType is the declared media type, e.g. "message/rfc822".
	MIMEType string

	// Extension is the declared file extension including the dot, e.g. ".eml".
	Extension string

	// Filename is the original file name, if known.
	Filename string
}

// NormalizedExtension returns the lower-cased extension.
func (s StreamInfo) NormalizedExtension() string {
	return strings.ToLower(s.Extension)
}

// NormalizedMIMEType returns the lower-cased media type.
func (s StreamInfo) NormalizedMIMEType() string {
	return strings.ToLower(strings.TrimSpace(s.MIMEType))
}

// Document is the output of a document-to-Markdown converter.
type Document struct {
	Markdown string
	Title    string
}
