// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/docbundle/internal/archive"
	"github.com/pdiddy/docbundle/internal/assets"
	"github.com/pdiddy/docbundle/pkg/types"
)

// ErrNoInput is returned when a request names neither a file nor a URL.
var ErrNoInput = errors.New("no file or URL to convert")

const failurePlaceholder = "Conversion failed."

// Request is one conversion. Path wins over URL when both are set.
type Request struct {
	// Path is a local file to convert.
	Path string

	// Filename is the original name of an uploaded file. It defaults to
	// the base of Path and drives the bundle's file names.
	Filename string

	// MIMEType is the declared media type, if any.
	MIMEType string

	URL string
}

// Result is what the caller gets back from a conversion.
type Result struct {
	Markdown string
	Title    string

	// ArchivePath is the zip holding the bundle. It is empty only when the
	// input could not be resolved at all. The caller owns the file.
	ArchivePath string

	Bundle  types.OutputBundle
	Outcome Outcome
}

// Pipeline converts inputs to Markdown and packages the result. A Pipeline
// keeps no state between requests.
type Pipeline struct {
	converter    DocumentConverter
	captioner    DocumentConverter
	rasterizer   PageRasterizer
	materializer *assets.Materializer
	workDir      string
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCaptioner enables the captioning path for image inputs.
func WithCaptioner(c DocumentConverter) Option {
	return func(p *Pipeline) { p.captioner = c }
}

// WithRasterizer enables page image extraction for PDF inputs.
func WithRasterizer(r PageRasterizer) Option {
	return func(p *Pipeline) { p.rasterizer = r }
}

// WithWorkDir sets where archives are created. Empty means the OS temp dir.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) { p.workDir = dir }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline builds a Pipeline around the standard converter, which also
// serves as the fallback when the captioner fails.
func NewPipeline(converter DocumentConverter, m *assets.Materializer, opts ...Option) *Pipeline {
	p := &Pipeline{converter: converter, materializer: m, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run converts req and writes its archive. Converter failures are folded
// into the Markdown; only a missing converter capability or an archive
// write failure is returned as an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	switch {
	case req.Path != "":
		return p.runFile(ctx, req)
	case req.URL != "":
		return p.runURL(ctx, req)
	}
	return Result{}, ErrNoInput
}

func (p *Pipeline) runFile(ctx context.Context, req Request) (Result, error) {
	name := req.Filename
	if name == "" {
		name = filepath.Base(req.Path)
	}
	src := Source{Path: req.Path, Info: InfoFor(name, req.MIMEType)}
	base := assets.BaseName(name, "")

	var pages []types.PageImage
	if p.rasterizer != nil && src.Info.NormalizedExtension() == ".pdf" {
		imgs, err := p.rasterizer.Rasterize(ctx, req.Path)
		if err != nil {
			p.logger.Warn("continuing without page images", "file", name, "error", err)
		} else {
			pages = imgs
		}
	}

	doc, outcome, err := p.convert(ctx, src)
	if err != nil {
		return Result{}, err
	}
	doc.Markdown = outcome.Notice() + doc.Markdown

	res, err := p.Package(ctx, base, doc, pages)
	res.Outcome = outcome
	return res, err
}

func (p *Pipeline) runURL(ctx context.Context, req Request) (Result, error) {
	doc, err := p.converter.Convert(ctx, Source{URL: req.URL, Info: InfoForURL(req.URL)})
	if err != nil {
		p.logger.Warn("URL conversion failed", "url", req.URL, "error", err)
		return Result{Markdown: fmt.Sprintf("URL conversion error: %v", err)}, nil
	}
	return p.Package(ctx, assets.BaseName("", req.URL), doc, nil)
}

// convert runs the captioner for image inputs when one is configured and
// the standard converter otherwise. A failed attempt is classified and
// retried once on the standard converter.
func (p *Pipeline) convert(ctx context.Context, src Source) (types.Document, Outcome, error) {
	conv, captioning := p.converter, false
	if p.captioner != nil && IsImage(src.Info) {
		conv, captioning = p.captioner, true
		p.logger.Info("image input will be sent to the captioning service", "file", src.Info.Filename)
	}

	doc, err := conv.Convert(ctx, src)
	if err == nil {
		if captioning {
			return doc, Described(), nil
		}
		return doc, Outcome{}, nil
	}

	var missing *types.MissingDependencyError
	if errors.As(err, &missing) && !captioning {
		return types.Document{}, Outcome{}, err
	}

	kind := Classify(err)
	p.logger.Warn("conversion failed, retrying", "converter", conv.Name(), "kind", kind, "error", err)

	outcome := Outcome{}
	if captioning {
		outcome = FellThrough(fallbackReason(kind))
	}
	prefix := fmt.Sprintf("File conversion error: %v\n%s\n", err, kind.Hint())

	retry, rerr := p.converter.Convert(ctx, src)
	if rerr != nil {
		if errors.As(rerr, &missing) {
			return types.Document{}, outcome, rerr
		}
		p.logger.Error("fallback conversion failed", "converter", p.converter.Name(), "error", rerr)
		return types.Document{Markdown: prefix + failurePlaceholder}, outcome, nil
	}
	retry.Markdown = prefix + retry.Markdown
	return retry, outcome, nil
}

func fallbackReason(k FailureKind) string {
	switch k {
	case FailureAuth:
		return "API key rejected"
	case FailureQuota:
		return "usage limit reached"
	default:
		return "captioning failed"
	}
}

// Package materializes doc's assets and writes the bundle archive.
func (p *Pipeline) Package(ctx context.Context, basename string, doc types.Document, pages []types.PageImage) (Result, error) {
	bundle := p.materializer.Materialize(ctx, basename, doc.Markdown, pages)

	path, err := archive.WriteTemp(p.workDir, bundle)
	if err != nil {
		return Result{}, fmt.Errorf("writing archive for %s: %w", basename, err)
	}
	p.logger.Info("bundle written", "name", basename, "archive", path, "assets", len(bundle.Assets))

	return Result{
		Markdown:    bundle.Markdown,
		Title:       doc.Title,
		ArchivePath: path,
		Bundle:      bundle,
	}, nil
}
