// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docbundle/internal/container"
	"github.com/pdiddy/docbundle/pkg/types"
)

// DefaultMarkitdownImage is the converter image used when none is configured.
const DefaultMarkitdownImage = "markitdown:latest"

// envCaptionKey carries the captioning key into the markitdown container,
// which then describes image inputs instead of only reading metadata.
const envCaptionKey = "OPENAI_API_KEY"

// MarkitdownConverter converts documents by running them through the
// markitdown container image. It depends on a container.Runtime (docker or
// podman) injected at construction time. Data URIs are always kept so
// embedded images survive into the Markdown.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
	env     map[string]string
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run image. It verifies that the image exists locally before
// returning.
func NewMarkitdownConverter(rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultMarkitdownImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// WithCaptioning returns a copy of m that passes apiKey to the container so
// image inputs are described by the captioning model.
func (m *MarkitdownConverter) WithCaptioning(apiKey string) *MarkitdownConverter {
	c := *m
	c.env = map[string]string{envCaptionKey: apiKey}
	return &c
}

func (m *MarkitdownConverter) Name() string {
	if m.env != nil {
		return "MarkitdownConverter(captioning)"
	}
	return "MarkitdownConverter"
}

// Accepts returns true: markitdown is the catch-all backend.
func (m *MarkitdownConverter) Accepts(types.StreamInfo) bool { return true }

// Convert pipes a file through the container, or passes a URL for the
// container to fetch, and returns the resulting Markdown text.
func (m *MarkitdownConverter) Convert(ctx context.Context, src Source) (types.Document, error) {
	spec := container.RunSpec{
		Image: m.image,
		Args:  []string{"--keep-data-uris"},
		Env:   m.env,
	}
	var out bytes.Buffer
	spec.Stdout = &out

	switch {
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return types.Document{}, fmt.Errorf("opening %s: %w", src.Path, err)
		}
		defer f.Close()
		spec.Stdin = f

		ext := src.Info.NormalizedExtension()
		if ext == "" {
			ext = strings.ToLower(filepath.Ext(src.Path))
		}
		if ext = strings.TrimPrefix(ext, "."); ext != "" {
			spec.Args = append(spec.Args, "-x", ext)
		}
	case src.URL != "":
		spec.Args = append(spec.Args, src.URL)
	default:
		return types.Document{}, ErrNoInput
	}

	if err := m.runtime.Run(ctx, spec); err != nil {
		return types.Document{}, fmt.Errorf("converting %s with markitdown: %w", src, err)
	}

	if out.Len() == 0 {
		return types.Document{}, fmt.Errorf("markitdown produced empty output for %s", src)
	}

	return types.Document{Markdown: out.String()}, nil
}
