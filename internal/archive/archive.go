// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive writes an OutputBundle as a flat zip archive. Output is
// deterministic: identical bundles produce byte-identical archives.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/pdiddy/docbundle/pkg/types"
)

// ErrInvalidName is returned for member names that are empty or carry
// path components.
var ErrInvalidName = errors.New("invalid archive member name")

// modTime is stamped on every member so archives do not depend on the clock.
var modTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Member is one file in an archive.
type Member struct {
	Name string
	Data []byte
}

// Members lists the bundle's files in write order with one entry per
// unique name. The Markdown comes first and always carries the bundle's
// final text; a later asset with the same name replaces the earlier data
// but keeps the earlier position.
func Members(b types.OutputBundle) []Member {
	var (
		out   []Member
		index = map[string]int{}
	)
	put := func(name string, data []byte) {
		if i, ok := index[name]; ok {
			out[i].Data = data
			return
		}
		index[name] = len(out)
		out = append(out, Member{Name: name, Data: data})
	}

	put(b.MarkdownName, nil)
	for _, a := range b.Assets {
		put(a.Filename, a.Content)
	}
	out[index[b.MarkdownName]].Data = []byte(b.Markdown)
	return out
}

// Write streams the bundle to w as a zip archive.
func Write(w io.Writer, b types.OutputBundle) error {
	members := Members(b)
	for _, m := range members {
		if err := validName(m.Name); err != nil {
			return err
		}
	}

	zw := zip.NewWriter(w)
	for _, m := range members {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     m.Name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return fmt.Errorf("creating member %s: %w", m.Name, err)
		}
		if _, err := fw.Write(m.Data); err != nil {
			return fmt.Errorf("writing member %s: %w", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// WriteTemp writes the bundle to a uniquely named file in dir (the OS
// temp directory when dir is empty) and returns its path. The caller
// owns the file.
func WriteTemp(dir string, b types.OutputBundle) (string, error) {
	f, err := os.CreateTemp(dir, "docbundle-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temp archive: %w", err)
	}
	path := f.Name()

	if err := Write(f, b); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing temp archive: %w", err)
	}
	return path, nil
}

// Read returns every regular member of the zip archive in data.
func Read(data []byte) ([]Member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	var out []Member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening member %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading member %s: %w", f.Name, err)
		}
		out = append(out, Member{Name: f.Name, Data: body})
	}
	return out, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
