// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FallbackBaseName is used when neither a file name nor a URL host is known.
const FallbackBaseName = "converted_from_url"

var hostReplacer = strings.NewReplacer(".", "_", ":", "_")

// BaseName derives the stem used for every file in a bundle. A file name
// wins over a URL; for a URL the host is used with dots replaced.
func BaseName(filename, sourceURL string) string {
	if filename != "" {
		base := filepath.Base(filename)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem != "" && stem != "." && stem != string(filepath.Separator) {
			return stem
		}
	}
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
			return hostReplacer.Replace(u.Host)
		}
	}
	return FallbackBaseName
}
