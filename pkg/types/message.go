// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Part is one MIME entity of an email message.
type Part struct {
	// ContentType is the lower-cased media type, e.g. "text/plain".
	ContentType string

	// Disposition is the raw Content-Disposition header value.
	Disposition string

	// Charset is the declared charset parameter, if any.
	Charset string

	// Payload holds the transfer-decoded bytes. It is not charset-decoded.
	Payload []byte
}

// Message is a parsed email message. A simple message has a single Root
// part with a readable payload; a multipart message lists its top-level
// children in Parts.
type Message struct {
	Header    HeaderSet
	Multipart bool
	Root      Part
	Parts     []Part
}

// HeaderSet maps a header field name to its raw value.
type HeaderSet map[string]string

// ExtractedBody is the textual body chosen for a message.
type ExtractedBody struct {
	Text string

	// Encoding is the charset that decoded Text, for diagnostics.
	Encoding string
}

// IsEmpty reports whether no usable body was found.
func (b ExtractedBody) IsEmpty() bool {
	return b.Text == ""
}
