// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package email

import (
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/docbundle/internal/charset"
)

var unfolder = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// wordDecoder sends every encoded-word whose charset the mime package does
// not handle itself through the fallback ladder.
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(cs string, r io.Reader) (io.Reader, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		// RFC 2231 language suffix: =?utf-8*en?Q?...?=
		if i := strings.IndexByte(cs, '*'); i >= 0 {
			cs = cs[:i]
		}
		return strings.NewReader(charset.Decode(data, cs).Text), nil
	},
}

// DecodeHeader decodes a raw header value that may mix encoded-words and
// literal text. Whitespace between two adjacent encoded-words is dropped
// and a malformed encoded-word is kept as written.
//
// UTF-8 and 8-bit literal text pass through the mime package untouched,
// so a result that is not valid UTF-8 is run through the ladder as a
// whole.
//
// DecodeHeader never fails: any unexpected error returns raw unchanged.
func DecodeHeader(raw string) (decoded string) {
	if raw == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			decoded = raw
		}
	}()

	out, err := wordDecoder.DecodeHeader(unfolder.Replace(raw))
	if err != nil {
		return raw
	}
	if !utf8.ValidString(out) {
		out = charset.Decode([]byte(out), "").Text
	}
	return out
}

// Headers holds the decoded header fields rendered into the Markdown.
type Headers struct {
	From    string
	To      string
	Subject string
	Date    string
	CC      string
}

// DecodeHeaders decodes the fields of interest from a raw header set.
func DecodeHeaders(h map[string]string) Headers {
	return Headers{
		From:    DecodeHeader(h["From"]),
		To:      DecodeHeader(h["To"]),
		Subject: DecodeHeader(h["Subject"]),
		Date:    DecodeHeader(h["Date"]),
		CC:      DecodeHeader(h["CC"]),
	}
}

// fields returns label/value pairs in rendering order.
func (h Headers) fields() [][2]string {
	return [][2]string{
		{"From", h.From},
		{"To", h.To},
		{"Subject", h.Subject},
		{"Date", h.Date},
		{"CC", h.CC},
	}
}
