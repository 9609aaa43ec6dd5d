// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pdiddy/docbundle/internal/httputil"
	"github.com/pdiddy/docbundle/pkg/types"
)

const defaultExtension = ".bin"

// Materializer turns image references into files and rewrites the
// Markdown to reference them by file name. A Materializer holds no
// per-request state and may be reused.
type Materializer struct {
	fetcher httputil.Fetcher
	logger  *slog.Logger
}

// NewMaterializer returns a Materializer. A nil fetcher disables remote
// downloads; remote references are then left as they are.
func NewMaterializer(fetcher httputil.Fetcher, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{fetcher: fetcher, logger: logger}
}

// Materialize builds the bundle for markdown. Page images, when given, are
// placed first; embedded and remote images follow in scan order.
//
// All matches are collected over the Markdown as it stands after page
// insertion, then every replacement is applied in a single pass.
func (m *Materializer) Materialize(ctx context.Context, basename, markdown string, pages []types.PageImage) types.OutputBundle {
	bundle := types.OutputBundle{MarkdownName: basename + ".md"}

	if len(pages) > 0 {
		var pageAssets []types.MaterializedAsset
		markdown, pageAssets = InsertPageImages(basename, markdown, pages)
		bundle.Assets = append(bundle.Assets, pageAssets...)
	}

	var (
		replacements = map[string]string{}
		seen         = map[string]bool{}
		embeddedIdx  int
		remoteIdx    int
	)

	// Every match takes the next ordinal of its kind. A repeated target
	// keeps the file of its first occurrence, so its own ordinal goes unused.
	for _, ref := range Scan(markdown) {
		switch ref.Kind {
		case types.AssetEmbedded:
			i := embeddedIdx
			embeddedIdx++
			if seen[ref.Target] {
				continue
			}
			seen[ref.Target] = true

			asset, err := embeddedAsset(basename, i, ref)
			if err != nil {
				m.logger.Warn("skipping embedded image", "index", i, "error", err)
				continue
			}
			bundle.Assets = append(bundle.Assets, asset)
			replacements[ref.Target] = asset.Filename

		case types.AssetRemote:
			i := remoteIdx
			remoteIdx++
			if seen[ref.Target] {
				continue
			}
			seen[ref.Target] = true

			if !strings.HasPrefix(ref.Target, "http") {
				m.logger.Debug("leaving relative image path unresolved", "path", ref.Target)
				continue
			}
			asset, err := m.remoteAsset(ctx, basename, i, ref)
			if err != nil {
				m.logger.Warn("failed to download image", "url", ref.Target, "error", err)
				continue
			}
			bundle.Assets = append(bundle.Assets, asset)
			replacements[ref.Target] = asset.Filename
		}
	}

	bundle.Markdown = rewrite(markdown, replacements)
	return bundle
}

func embeddedAsset(basename string, i int, ref types.AssetReference) (types.MaterializedAsset, error) {
	_, payload, ok := strings.Cut(ref.Target, ";base64,")
	if !ok {
		return types.MaterializedAsset{}, fmt.Errorf("data URI without base64 payload")
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return types.MaterializedAsset{}, fmt.Errorf("decoding base64 payload: %w", err)
	}
	ext := ExtensionFor(ref.MediaType)
	if ext == "" {
		ext = defaultExtension
	}
	return types.MaterializedAsset{
		Filename: fmt.Sprintf("%s_base64_%d%s", basename, i, ext),
		Content:  data,
		Source:   ref,
	}, nil
}

func (m *Materializer) remoteAsset(ctx context.Context, basename string, i int, ref types.AssetReference) (types.MaterializedAsset, error) {
	if m.fetcher == nil {
		return types.MaterializedAsset{}, fmt.Errorf("no fetcher configured")
	}
	resp, err := m.fetcher.Fetch(ctx, ref.Target)
	if err != nil {
		return types.MaterializedAsset{}, err
	}
	ext := ExtensionFor(resp.ContentType)
	if ext == "" {
		ext = urlExtension(ref.Target)
	}
	if ext == "" {
		ext = defaultExtension
	}
	return types.MaterializedAsset{
		Filename: fmt.Sprintf("%s_url_%d%s", basename, i, ext),
		Content:  resp.Body,
		Source:   ref,
	}, nil
}

// decodeBase64 accepts padded and unpadded payloads and tolerates
// embedded whitespace.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// rewrite replaces every occurrence of each key with its value in one
// pass. Longer keys are tried first so a target that prefixes another
// target cannot shadow it.
func rewrite(markdown string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return markdown
	}
	olds := make([]string, 0, len(replacements))
	for old := range replacements {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool {
		if len(olds[i]) != len(olds[j]) {
			return len(olds[i]) > len(olds[j])
		}
		return olds[i] < olds[j]
	})
	pairs := make([]string, 0, 2*len(olds))
	for _, old := range olds {
		pairs = append(pairs, old, replacements[old])
	}
	return strings.NewReplacer(pairs...).Replace(markdown)
}
