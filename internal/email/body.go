// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package email

import (
	"strings"

	"github.com/pdiddy/docbundle/internal/charset"
	"github.com/pdiddy/docbundle/pkg/types"
)

const defaultCharset = "utf-8"

// ExtractBody selects the textual body of msg.
//
// A simple message decodes its own payload. For a multipart message the
// top-level parts are scanned in order, skipping attachments: the first
// text/plain part with a non-empty payload wins immediately; otherwise
// the first non-empty text/html part is used. An empty result means no
// usable body was found.
func ExtractBody(msg *types.Message) types.ExtractedBody {
	if msg == nil {
		return types.ExtractedBody{}
	}
	if !msg.Multipart {
		if len(msg.Root.Payload) == 0 {
			return types.ExtractedBody{}
		}
		return decodePart(msg.Root)
	}

	var html types.ExtractedBody
	for _, part := range msg.Parts {
		if isAttachment(part) {
			continue
		}
		switch part.ContentType {
		case "text/plain":
			// Empty plain parts (signature placeholders) do not end the scan.
			if len(part.Payload) > 0 {
				return decodePart(part)
			}
		case "text/html":
			if html.IsEmpty() && len(part.Payload) > 0 {
				html = decodePart(part)
			}
		}
	}
	return html
}

func isAttachment(p types.Part) bool {
	return strings.Contains(strings.ToLower(p.Disposition), "attachment")
}

func decodePart(p types.Part) types.ExtractedBody {
	cs := p.Charset
	if cs == "" {
		cs = defaultCharset
	}
	res := charset.Decode(p.Payload, cs)
	return types.ExtractedBody{Text: res.Text, Encoding: res.Encoding}
}
