// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/docbundle/internal/email"
	"github.com/pdiddy/docbundle/pkg/types"
)

// EmailConverter adapts the email package to DocumentConverter. It only
// reads local files.
type EmailConverter struct {
	conv *email.Converter
}

// NewEmailConverter returns a ready EmailConverter.
func NewEmailConverter() *EmailConverter {
	return &EmailConverter{conv: email.NewConverter()}
}

func (e *EmailConverter) Name() string { return e.conv.Name() }

func (e *EmailConverter) Accepts(info types.StreamInfo) bool { return e.conv.Accepts(info) }

func (e *EmailConverter) Convert(_ context.Context, src Source) (types.Document, error) {
	if src.Path == "" {
		return types.Document{}, fmt.Errorf("%s needs a local file, got %q", e.Name(), src.URL)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return types.Document{}, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()
	return e.conv.Convert(f, src.Info)
}
