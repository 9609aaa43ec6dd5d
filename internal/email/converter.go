// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package email converts RFC 5322 email messages to Markdown.
//
// Header values are decoded through RFC 2047 encoded-words and a charset
// fallback ladder; the body is the first usable text/plain part, or the
// first text/html part when no plain text exists. HTML bodies are emitted
// verbatim.
package email

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/docbundle/pkg/types"
)

const converterName = "EmailConverter"

var (
	acceptedMIMEPrefixes = []string{"message/rfc822", "application/vnd.ms-outlook"}
	acceptedExtensions   = []string{".eml", ".msg"}
)

// Converter converts email messages to Markdown. The zero value has no
// parser and reports a missing dependency; use NewConverter.
type Converter struct {
	parse func(io.Reader) (*types.Message, error)
}

// NewConverter returns a Converter backed by the go-message parser.
func NewConverter() *Converter {
	return &Converter{parse: Parse}
}

// Name returns the converter name used in diagnostics.
func (c *Converter) Name() string {
	return converterName
}

// Accepts reports whether info describes an email message, by extension
// (.eml, .msg) or by media type prefix.
func (c *Converter) Accepts(info types.StreamInfo) bool {
	ext := info.NormalizedExtension()
	for _, e := range acceptedExtensions {
		if ext == e {
			return true
		}
	}
	mt := info.NormalizedMIMEType()
	for _, prefix := range acceptedMIMEPrefixes {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return false
}

// Convert parses the message in r and renders it as Markdown. The
// returned title is the decoded Subject.
func (c *Converter) Convert(r io.Reader, _ types.StreamInfo) (types.Document, error) {
	if c == nil || c.parse == nil {
		return types.Document{}, &types.MissingDependencyError{
			Converter: converterName,
			Feature:   "email",
			Extension: ".eml/.msg",
		}
	}

	msg, err := c.parse(r)
	if err != nil {
		return types.Document{}, fmt.Errorf("email: %w", err)
	}

	headers := DecodeHeaders(msg.Header)
	body := ExtractBody(msg)
	return types.Document{
		Markdown: Format(headers, body),
		Title:    headers.Subject,
	}, nil
}

// Format renders decoded headers and the extracted body as Markdown:
// a title line, one bold label line per non-empty header, a Content
// heading, then the body verbatim. The result is trimmed.
func Format(h Headers, body types.ExtractedBody) string {
	var b strings.Builder
	b.WriteString("# Email Message\n\n")
	for _, f := range h.fields() {
		if f[1] != "" {
			fmt.Fprintf(&b, "**%s:** %s\n", f[0], f[1])
		}
	}
	b.WriteString("\n## Content\n\n")
	b.WriteString(body.Text)
	return strings.TrimSpace(b.String())
}
