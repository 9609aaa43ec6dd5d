// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/docbundle/internal/email"
	"github.com/pdiddy/docbundle/pkg/types"
)

// BatchEntry is one message of an mbox batch.
type BatchEntry struct {
	Name    string `yaml:"name"`
	Subject string `yaml:"subject,omitempty"`
	Archive string `yaml:"archive,omitempty"`
	Assets  int    `yaml:"assets"`
	Error   string `yaml:"error,omitempty"`
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int          `yaml:"converted"`
	Failed    int          `yaml:"failed"`
	Entries   []BatchEntry `yaml:"entries"`
}

// Total returns the total number of messages processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any message failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertMbox converts every message in an mbox stream into its own bundle
// named <name>_<n> (1-based) and moves each archive into outDir. Per-message
// status lines go to w.
func (p *Pipeline) ConvertMbox(ctx context.Context, r io.Reader, name, outDir string, w io.Writer) (BatchResult, error) {
	var result BatchResult

	msgs, err := email.SplitMbox(r)
	if err != nil {
		return result, fmt.Errorf("reading mbox %s: %w", name, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	conv := email.NewConverter()
	for i, raw := range msgs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		entry := BatchEntry{Name: fmt.Sprintf("%s_%d", name, i+1)}

		if err := p.convertMessage(ctx, conv, raw, outDir, &entry); err != nil {
			entry.Error = err.Error()
			fmt.Fprintf(w, "failed:  %s (%v)\n", entry.Name, err)
			result.Failed++
		} else {
			fmt.Fprintf(w, "converted: %s\n", entry.Name)
			result.Converted++
		}
		result.Entries = append(result.Entries, entry)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		result.Converted, result.Failed, result.Total())
	return result, nil
}

func (p *Pipeline) convertMessage(ctx context.Context, conv *email.Converter, raw []byte, outDir string, entry *BatchEntry) error {
	doc, err := conv.Convert(bytes.NewReader(raw), types.StreamInfo{Extension: ".eml"})
	if err != nil {
		return err
	}
	entry.Subject = doc.Title

	res, err := p.Package(ctx, entry.Name, doc, nil)
	if err != nil {
		return err
	}
	entry.Assets = len(res.Bundle.Assets)

	dest := filepath.Join(outDir, entry.Name+".zip")
	if err := MoveFile(res.ArchivePath, dest); err != nil {
		return err
	}
	entry.Archive = dest
	return nil
}

// MoveFile renames src to dst, copying when a rename is not possible
// (e.g. across file systems).
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return os.Remove(src)
}
