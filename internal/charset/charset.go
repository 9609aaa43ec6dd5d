// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package charset decodes byte payloads of uncertain text encoding.
//
// Decoding walks an ordered ladder: the declared charset first, then a
// fixed list of common Japanese mail encodings, and finally a lossy UTF-8
// decode. The ladder always yields a string.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
)

// Fallbacks is the ordered list tried after the declared charset.
var Fallbacks = []string{"utf-8", "shift_jis", "cp932", "iso-2022-jp"}

// Lossy names the final decode step in Result.Encoding.
const Lossy = "utf-8-lossy"

var replacementChar = []byte("\uFFFD")

var (
	// ErrUnknownCharset is returned when a charset name cannot be resolved.
	ErrUnknownCharset = errors.New("unknown charset")

	// ErrInvalidInput is returned when the bytes are not valid in the charset.
	ErrInvalidInput = errors.New("invalid input for charset")
)

// Result is a decoded string and the charset that produced it.
type Result struct {
	Text     string
	Encoding string
}

// Decode decodes data with the declared charset, falling back through
// Fallbacks and finally a lossy UTF-8 decode that drops invalid bytes.
// An empty declared charset skips straight to the fallbacks.
func Decode(data []byte, declared string) Result {
	if declared = strings.TrimSpace(declared); declared != "" {
		if s, err := DecodeStrict(data, declared); err == nil {
			return Result{Text: s, Encoding: strings.ToLower(declared)}
		}
	}
	for _, name := range Fallbacks {
		if s, err := DecodeStrict(data, name); err == nil {
			return Result{Text: s, Encoding: name}
		}
	}
	return Result{Text: strings.ToValidUTF8(string(data), ""), Encoding: Lossy}
}

// DecodeStrict decodes data with the named charset and fails when any
// byte sequence is invalid for it.
func DecodeStrict(data []byte, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "utf-8", "utf8", "us-ascii", "ascii":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: %w", key, ErrInvalidInput)
		}
		return string(data), nil
	}

	enc, err := lookup(key)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	// x/text decoders substitute U+FFFD for invalid sequences instead of
	// failing. A replacement character the input did not already carry
	// means the bytes did not belong to this charset. The encoded form is
	// matched because ContainsRune(RuneError) also matches invalid bytes.
	if bytes.Contains(out, replacementChar) && !bytes.Contains(data, replacementChar) {
		return "", fmt.Errorf("%s: %w", key, ErrInvalidInput)
	}
	return string(out), nil
}

func lookup(name string) (encoding.Encoding, error) {
	switch name {
	case "shift_jis", "shift-jis", "sjis", "x-sjis":
		return japanese.ShiftJIS, nil
	case "cp932", "windows-31j", "ms932":
		// x/text's Shift JIS table is the Windows-31J superset.
		return japanese.ShiftJIS, nil
	case "iso-2022-jp", "csiso2022jp":
		return japanese.ISO2022JP, nil
	case "euc-jp":
		return japanese.EUCJP, nil
	}
	enc, _ := ianaindex.MIME.Encoding(name)
	if enc == nil {
		enc, _ = ianaindex.IANA.Encoding(name)
	}
	if enc == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCharset)
	}
	return enc, nil
}
