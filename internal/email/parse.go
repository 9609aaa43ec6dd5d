// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package email

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"

	"github.com/pdiddy/docbundle/pkg/types"
)

// headerFields lists the header fields copied into types.Message.Header.
var headerFields = []string{"From", "To", "Subject", "Date", "CC"}

// Parse reads an RFC 5322 message into a types.Message. Transfer
// encodings are decoded; charsets are not, so payloads keep their
// original bytes for the fallback ladder. Only the top-level children of
// a multipart message are collected.
func Parse(r io.Reader) (*types.Message, error) {
	entity, err := message.Read(r)
	if err != nil && !usable(entity, err) {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	msg := &types.Message{Header: types.HeaderSet{}}
	for _, name := range headerFields {
		if v := entity.Header.Get(name); v != "" {
			msg.Header[name] = v
		}
	}

	mr := entity.MultipartReader()
	if mr == nil {
		msg.Root = readPart(entity)
		return msg, nil
	}

	msg.Multipart = true
	for {
		child, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !usable(child, err) {
			// A broken boundary ends the part list; keep what was read.
			break
		}
		msg.Parts = append(msg.Parts, readPart(child))
	}
	return msg, nil
}

// usable reports whether an entity returned alongside err can still be
// read. go-message flags unknown charsets and transfer encodings but
// leaves the body readable.
func usable(e *message.Entity, err error) bool {
	return e != nil && (message.IsUnknownCharset(err) || message.IsUnknownEncoding(err))
}

func readPart(e *message.Entity) types.Part {
	mediaType, params := contentType(e.Header)
	p := types.Part{
		ContentType: mediaType,
		Disposition: e.Header.Get("Content-Disposition"),
		Charset:     params["charset"],
	}
	if strings.HasPrefix(mediaType, "multipart/") {
		return p
	}
	// A truncated or corrupt body still yields whatever was decoded.
	p.Payload, _ = io.ReadAll(e.Body)
	return p
}

func contentType(h message.Header) (string, map[string]string) {
	raw := h.Get("Content-Type")
	if strings.TrimSpace(raw) == "" {
		return "text/plain", map[string]string{}
	}
	mediaType, params, err := h.ContentType()
	if err != nil {
		mediaType, _, _ = strings.Cut(raw, ";")
		params = map[string]string{}
	}
	if params == nil {
		params = map[string]string{}
	}
	return strings.ToLower(strings.TrimSpace(mediaType)), params
}
