// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/docbundle/pkg/types"
)

// PageBreak is the form feed that converters emit between pages.
const PageBreak = "\x0c"

// InsertPageImages places a reference block for every page image into
// markdown. The block for page N goes immediately before the N-th page
// break. Pages with no following break are appended at the end in page
// order. Images within a page keep their input order.
func InsertPageImages(basename, markdown string, pages []types.PageImage) (string, []types.MaterializedAsset) {
	byPage := map[int][]types.PageImage{}
	for _, p := range pages {
		byPage[p.Page] = append(byPage[p.Page], p)
	}

	var (
		b      strings.Builder
		assets []types.MaterializedAsset
	)
	emit := func(page int) {
		for i, img := range byPage[page] {
			ext := ExtensionFor(img.MediaType)
			if ext == "" {
				ext = ".png"
			}
			name := fmt.Sprintf("%s_page%d_%d%s", basename, page, i, ext)
			fmt.Fprintf(&b, "\n\n<!-- PDF Image from page %d -->\n![PDF Image %d](%s)\n", page, i, name)
			assets = append(assets, types.MaterializedAsset{
				Filename: name,
				Content:  img.Data,
				Source: types.AssetReference{
					Kind:      types.AssetPage,
					Target:    name,
					MediaType: img.MediaType,
				},
			})
		}
		delete(byPage, page)
	}

	page := 1
	rest := markdown
	for {
		idx := strings.Index(rest, PageBreak)
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		emit(page)
		b.WriteString(PageBreak)
		rest = rest[idx+len(PageBreak):]
		page++
	}
	b.WriteString(rest)

	leftover := make([]int, 0, len(byPage))
	for p := range byPage {
		leftover = append(leftover, p)
	}
	sort.Ints(leftover)
	for _, p := range leftover {
		emit(p)
	}

	return b.String(), assets
}
