// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/docbundle/internal/archive"
	"github.com/pdiddy/docbundle/internal/container"
	"github.com/pdiddy/docbundle/pkg/types"
)

// DefaultRasterizerImage is the page renderer image used when none is configured.
const DefaultRasterizerImage = "docbundle-pdfpages:latest"

// pageMember matches renderer output names: page-<N>.png, or
// page-<N>-<i>.png when a page yields several images.
var pageMember = regexp.MustCompile(`^page-(\d+)(?:-(\d+))?\.(png|jpe?g)$`)

// PageRasterizer renders the pages of a paginated document to images.
type PageRasterizer interface {
	Rasterize(ctx context.Context, path string) ([]types.PageImage, error)
}

// ContainerRasterizer runs a renderer image that reads a PDF on stdin and
// writes a zip of page images to stdout.
type ContainerRasterizer struct {
	runtime container.Runtime
	image   string
}

// NewContainerRasterizer verifies the renderer image exists locally.
func NewContainerRasterizer(rt container.Runtime, image string) (*ContainerRasterizer, error) {
	if image == "" {
		image = DefaultRasterizerImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, &types.MissingDependencyError{
			Converter: "ContainerRasterizer",
			Feature:   "PDF page image",
			Extension: ".pdf",
			Err:       err,
		}
	}
	return &ContainerRasterizer{runtime: rt, image: image}, nil
}

// Rasterize returns the page images for the PDF at path ordered by page.
func (c *ContainerRasterizer) Rasterize(ctx context.Context, path string) ([]types.PageImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, container.RunSpec{Image: c.image, Stdin: f, Stdout: &out}); err != nil {
		return nil, fmt.Errorf("rendering pages of %s: %w", path, err)
	}
	return pageImagesFromZip(out.Bytes())
}

func pageImagesFromZip(data []byte) ([]types.PageImage, error) {
	members, err := archive.Read(data)
	if err != nil {
		return nil, fmt.Errorf("reading page archive: %w", err)
	}

	type keyed struct {
		seq int
		img types.PageImage
	}
	var found []keyed
	for _, m := range members {
		sub := pageMember.FindStringSubmatch(m.Name)
		if sub == nil {
			continue
		}
		page, _ := strconv.Atoi(sub[1])
		seq, _ := strconv.Atoi(sub[2])
		mediaType := "image/png"
		if sub[3] != "png" {
			mediaType = "image/jpeg"
		}
		found = append(found, keyed{seq: seq, img: types.PageImage{Page: page, MediaType: mediaType, Data: m.Data}})
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].img.Page != found[j].img.Page {
			return found[i].img.Page < found[j].img.Page
		}
		return found[i].seq < found[j].seq
	})

	pages := make([]types.PageImage, len(found))
	for i, k := range found {
		pages[i] = k.img
	}
	return pages, nil
}
