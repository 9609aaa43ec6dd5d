// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docbundle/internal/archive"
	"github.com/pdiddy/docbundle/internal/assets"
	"github.com/pdiddy/docbundle/pkg/types"
)

type fakeRasterizer struct {
	pages []types.PageImage
	err   error
}

func (f *fakeRasterizer) Rasterize(context.Context, string) ([]types.PageImage, error) {
	return f.pages, f.err
}

func newTestPipeline(t *testing.T, conv DocumentConverter, opts ...Option) *Pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithWorkDir(t.TempDir()), WithLogger(logger)}, opts...)
	return NewPipeline(conv, assets.NewMaterializer(nil, logger), opts...)
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	members, err := archive.Read(data)
	require.NoError(t, err)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func TestPipelineRun_File(t *testing.T) {
	conv := &fakeConverter{output: "# Doc\n![x](data:image/png;base64,QUJD)", title: "Doc"}
	p := newTestPipeline(t, conv)
	path := writeInput(t, "upload-123.docx", "docx")

	res, err := p.Run(context.Background(), Request{Path: path, Filename: "report.docx"})
	require.NoError(t, err)

	assert.Equal(t, "# Doc\n![x](report_base64_0.png)", res.Markdown)
	assert.Equal(t, "Doc", res.Title)
	assert.Equal(t, OutcomeStandard, res.Outcome.Kind)
	require.NotEmpty(t, res.ArchivePath)
	assert.Equal(t, []string{"report.md", "report_base64_0.png"}, archiveNames(t, res.ArchivePath))
}

func TestPipelineRun_NoInput(t *testing.T) {
	p := newTestPipeline(t, &fakeConverter{})
	_, err := p.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestPipelineRun_Deterministic(t *testing.T) {
	conv := &fakeConverter{output: "![a](data:image/gif;base64,R0lG) text ![b](data:image/png;base64,QUJD)"}
	p := newTestPipeline(t, conv)
	path := writeInput(t, "same.html", "<html>")

	r1, err := p.Run(context.Background(), Request{Path: path})
	require.NoError(t, err)
	r2, err := p.Run(context.Background(), Request{Path: path})
	require.NoError(t, err)

	assert.NotEqual(t, r1.ArchivePath, r2.ArchivePath)
	d1, err := os.ReadFile(r1.ArchivePath)
	require.NoError(t, err)
	d2, err := os.ReadFile(r2.ArchivePath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(d1, d2))
}

func TestPipelineRun_Captioning(t *testing.T) {
	tests := []struct {
		name        string
		captionErr  error
		fallbackErr error
		wantKind    OutcomeKind
		wantPrefix  string
		wantContain []string
	}{
		{
			name:       "described",
			wantKind:   OutcomeDescribed,
			wantPrefix: "Image description generated by the captioning model.\n\n",
		},
		{
			name:        "auth failure falls through",
			captionErr:  errors.New("AuthenticationError: bad key"),
			wantKind:    OutcomeFellThrough,
			wantPrefix:  "Image captioning unavailable (API key rejected).",
			wantContain: []string{"File conversion error: AuthenticationError: bad key", FailureAuth.Hint(), "plain metadata"},
		},
		{
			name:        "quota failure falls through",
			captionErr:  errors.New("insufficient_quota"),
			wantKind:    OutcomeFellThrough,
			wantPrefix:  "Image captioning unavailable (usage limit reached).",
			wantContain: []string{FailureQuota.Hint(), "plain metadata"},
		},
		{
			name:        "fallback fails too",
			captionErr:  errors.New("boom"),
			fallbackErr: errors.New("still broken"),
			wantKind:    OutcomeFellThrough,
			wantContain: []string{"File conversion error: boom", failurePlaceholder},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captioner := &fakeConverter{output: "A photo of a cat.", err: tt.captionErr}
			standard := &fakeConverter{output: "plain metadata", err: tt.fallbackErr}
			p := newTestPipeline(t, standard, WithCaptioner(captioner))
			path := writeInput(t, "cat.jpg", "jpeg")

			res, err := p.Run(context.Background(), Request{Path: path})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, res.Outcome.Kind)
			assert.True(t, strings.HasPrefix(res.Markdown, tt.wantPrefix), res.Markdown)
			for _, s := range tt.wantContain {
				assert.Contains(t, res.Markdown, s)
			}
			assert.NotEmpty(t, res.ArchivePath, "archive is produced even on failure")
			assert.Equal(t, 1, captioner.calls)
		})
	}
}

func TestPipelineRun_CaptionerOnlyForImages(t *testing.T) {
	captioner := &fakeConverter{output: "caption"}
	standard := &fakeConverter{output: "text"}
	p := newTestPipeline(t, standard, WithCaptioner(captioner))

	res, err := p.Run(context.Background(), Request{Path: writeInput(t, "a.pdf", "%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "text", res.Markdown)
	assert.Equal(t, 0, captioner.calls)
}

func TestPipelineRun_GenericFailureRetried(t *testing.T) {
	conv := &fakeConverter{err: errors.New("container exited with code 1")}
	p := newTestPipeline(t, conv)

	res, err := p.Run(context.Background(), Request{Path: writeInput(t, "a.xlsx", "x")})
	require.NoError(t, err)
	assert.Equal(t, 2, conv.calls)
	assert.Equal(t, "File conversion error: container exited with code 1\n"+FailureGeneric.Hint()+"\n"+failurePlaceholder, res.Markdown)
	assert.NotEmpty(t, res.ArchivePath)
}

func TestPipelineRun_MissingDependency(t *testing.T) {
	p := newTestPipeline(t, NewRouter(NewEmailConverter()))

	_, err := p.Run(context.Background(), Request{Path: writeInput(t, "a.pdf", "%PDF")})
	var missing *types.MissingDependencyError
	assert.True(t, errors.As(err, &missing))
}

func TestPipelineRun_URL(t *testing.T) {
	conv := &fakeConverter{output: "# Post"}
	p := newTestPipeline(t, conv)

	res, err := p.Run(context.Background(), Request{URL: "https://blog.example.com/post"})
	require.NoError(t, err)
	assert.Equal(t, "blog_example_com.md", res.Bundle.MarkdownName)
	assert.NotEmpty(t, res.ArchivePath)
}

func TestPipelineRun_URLFailure(t *testing.T) {
	conv := &fakeConverter{err: errors.New("dial tcp: no such host")}
	p := newTestPipeline(t, conv)

	res, err := p.Run(context.Background(), Request{URL: "https://nowhere.invalid/"})
	require.NoError(t, err)
	assert.Equal(t, "URL conversion error: dial tcp: no such host", res.Markdown)
	assert.Empty(t, res.ArchivePath)
	assert.Equal(t, 1, conv.calls)
}

func TestPipelineRun_PDFPages(t *testing.T) {
	conv := &fakeConverter{output: "one\ftwo"}
	r := &fakeRasterizer{pages: []types.PageImage{
		{Page: 1, MediaType: "image/png", Data: []byte("p1")},
		{Page: 2, MediaType: "image/png", Data: []byte("p2")},
	}}
	p := newTestPipeline(t, conv, WithRasterizer(r))

	res, err := p.Run(context.Background(), Request{Path: writeInput(t, "paper.pdf", "%PDF")})
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "![PDF Image 0](paper_page1_0.png)\n\ftwo")
	assert.Equal(t, []string{"paper.md", "paper_page1_0.png", "paper_page2_0.png"}, archiveNames(t, res.ArchivePath))
}

func TestPipelineRun_RasterizerFailure(t *testing.T) {
	conv := &fakeConverter{output: "text"}
	p := newTestPipeline(t, conv, WithRasterizer(&fakeRasterizer{err: errors.New("renderer crashed")}))

	res, err := p.Run(context.Background(), Request{Path: writeInput(t, "paper.pdf", "%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "text", res.Markdown)
	assert.Equal(t, []string{"paper.md"}, archiveNames(t, res.ArchivePath))
}

func TestPageImagesFromZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, archive.Write(&buf, types.OutputBundle{
		MarkdownName: "manifest.txt",
		Assets: []types.MaterializedAsset{
			{Filename: "page-2.png", Content: []byte("b")},
			{Filename: "page-1-1.jpg", Content: []byte("a2")},
			{Filename: "page-1.png", Content: []byte("a1")},
			{Filename: "notes.txt", Content: []byte("ignored")},
		},
	}))

	pages, err := pageImagesFromZip(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, types.PageImage{Page: 1, MediaType: "image/png", Data: []byte("a1")}, pages[0])
	assert.Equal(t, types.PageImage{Page: 1, MediaType: "image/jpeg", Data: []byte("a2")}, pages[1])
	assert.Equal(t, 2, pages[2].Page)
}

func TestContainerRasterizer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, archive.Write(&buf, types.OutputBundle{
		MarkdownName: "manifest.txt",
		Assets:       []types.MaterializedAsset{{Filename: "page-1.png", Content: []byte("a")}},
	}))
	rt := &fakeRuntime{images: map[string]bool{DefaultRasterizerImage: true}, output: buf.Bytes()}

	r, err := NewContainerRasterizer(rt, "")
	require.NoError(t, err)
	pages, err := r.Rasterize(context.Background(), writeInput(t, "a.pdf", "%PDF-1.7"))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "%PDF-1.7", rt.stdin)

	_, err = NewContainerRasterizer(&fakeRuntime{}, "")
	var missing *types.MissingDependencyError
	assert.True(t, errors.As(err, &missing))
}

func TestConvertMbox(t *testing.T) {
	mbox := "From alice@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: alice@example.com\nSubject: First\nContent-Type: text/plain\n\nHello one\n\n" +
		"From bob@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: bob@example.com\nSubject: Second\nContent-Type: text/plain\n\nHello two\n"

	p := newTestPipeline(t, &fakeConverter{})
	outDir := filepath.Join(t.TempDir(), "out")
	var log bytes.Buffer

	res, err := p.ConvertMbox(context.Background(), strings.NewReader(mbox), "inbox", outDir, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Converted)
	assert.False(t, res.HasFailures())
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "inbox_1", res.Entries[0].Name)
	assert.Equal(t, "First", res.Entries[0].Subject)
	assert.Equal(t, "Second", res.Entries[1].Subject)
	assert.FileExists(t, filepath.Join(outDir, "inbox_1.zip"))
	assert.Equal(t, []string{"inbox_2.md"}, archiveNames(t, filepath.Join(outDir, "inbox_2.zip")))
	assert.Contains(t, log.String(), "converted: inbox_1")
	assert.Contains(t, log.String(), "Batch summary: 2 converted, 0 failed (total: 2)")
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip"), 0o644))
	dst := filepath.Join(dir, "b.zip")

	require.NoError(t, MoveFile(src, dst))
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
}
