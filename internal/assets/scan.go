// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets finds image references in Markdown, turns them into
// standalone files, and rewrites the Markdown to point at those files.
package assets

import (
	"regexp"

	"github.com/pdiddy/docbundle/pkg/types"
)

var (
	embeddedPattern = regexp.MustCompile(`!\[.*?\]\((data:(image/(?:png|jpeg|gif|bmp|webp));base64,[^)]+)\)`)
	remotePattern   = regexp.MustCompile(`!\[.*?\]\(((?:https?://|/)[^)\s]+\.(?:png|jpeg|jpg|gif|bmp|webp))\)`)
)

// Scan returns the image references in markdown. All embedded references
// come first, in left-to-right order, followed by all remote references.
//
// Alt text may contain brackets, so a Span can start at an earlier "![" on
// the same line. Target, Start and End always cover the link target alone.
func Scan(markdown string) []types.AssetReference {
	var refs []types.AssetReference
	for _, m := range embeddedPattern.FindAllStringSubmatchIndex(markdown, -1) {
		refs = append(refs, types.AssetReference{
			Kind:      types.AssetEmbedded,
			Span:      markdown[m[0]:m[1]],
			Target:    markdown[m[2]:m[3]],
			MediaType: markdown[m[4]:m[5]],
			Start:     m[2],
			End:       m[3],
		})
	}
	for _, m := range remotePattern.FindAllStringSubmatchIndex(markdown, -1) {
		refs = append(refs, types.AssetReference{
			Kind:   types.AssetRemote,
			Span:   markdown[m[0]:m[1]],
			Target: markdown[m[2]:m[3]],
			Start:  m[2],
			End:    m[3],
		})
	}
	return refs
}
