// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes conversion over HTTP: upload a file or submit a
// URL, then download the bundle archive or preview its Markdown.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/pkg/types"
)

// ErrUnknownDownload is returned for a bundle id the server does not hold.
var ErrUnknownDownload = errors.New("unknown download")

const (
	defaultMaxUpload = 64 << 20
	memoryForm       = 8 << 20
)

// Converter runs one conversion request.
type Converter interface {
	Run(ctx context.Context, req convert.Request) (convert.Result, error)
}

type bundle struct {
	archivePath string
	title       string
	output      types.OutputBundle
}

type Server struct {
	conv      Converter
	logger    *slog.Logger
	maxUpload int64
	uploadDir string
	mux       *http.ServeMux
	markdown  goldmark.Markdown

	// convertMu admits one conversion at a time.
	convertMu sync.Mutex

	mu      sync.Mutex
	bundles map[string]bundle
}

func NewServer(cfg types.ServerConfig, conv Converter, logger *slog.Logger) (*Server, error) {
	uploadDir, err := os.MkdirTemp("", "docbundle-uploads-*")
	if err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	server := &Server{
		conv:      conv,
		logger:    logger,
		maxUpload: maxUpload,
		uploadDir: uploadDir,
		bundles:   map[string]bundle{},
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert", server.handleConvert)
	mux.HandleFunc("GET /api/downloads/{id}", server.handleDownload)
	mux.HandleFunc("GET /api/bundles/{id}/preview", server.handlePreview)
	mux.HandleFunc("GET /api/bundles/{id}/assets/{name}", server.handleAsset)
	mux.HandleFunc("GET /health", server.handleHealth)
	server.mux = mux
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close removes every archive and upload the server created.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for id, b := range s.bundles {
		if err := os.Remove(b.archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(s.bundles, id)
	}
	if err := os.RemoveAll(s.uploadDir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type convertResponse struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown"`
	Download string `json:"download,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(memoryForm); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "upload too large"})
			return
		}
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form: " + err.Error()})
		return
	}

	req := convert.Request{URL: strings.TrimSpace(r.FormValue("url"))}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		path, err := s.saveUpload(file, header.Filename)
		if err != nil {
			s.logger.Error("saving upload", "error", err)
			s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "unable to store upload"})
			return
		}
		defer os.Remove(path)
		req.Path = path
		req.Filename = filepath.Base(header.Filename)
		req.MIMEType = header.Header.Get("Content-Type")
		if convert.IsImage(convert.InfoFor(req.Filename, "")) {
			s.logger.Info("image upload may be sent to an external captioning service", "file", req.Filename)
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file field: " + err.Error()})
		return
	}

	s.convertMu.Lock()
	res, err := s.conv.Run(r.Context(), req)
	s.convertMu.Unlock()

	var missing *types.MissingDependencyError
	switch {
	case errors.Is(err, convert.ErrNoInput):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.As(err, &missing):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("conversion failed", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "conversion failed"})
		return
	}

	resp := convertResponse{
		Title:    res.Title,
		Markdown: res.Markdown,
		Outcome:  res.Outcome.String(),
	}
	if res.ArchivePath != "" {
		id := s.register(bundle{archivePath: res.ArchivePath, title: res.Title, output: res.Bundle})
		resp.ID = id
		resp.Download = "/api/downloads/" + id
		resp.Preview = "/api/bundles/" + id + "/preview"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) saveUpload(r io.Reader, filename string) (string, error) {
	f, err := os.CreateTemp(s.uploadDir, "upload-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), f.Close()
}

func (s *Server) register(b bundle) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.bundles[id] = b
	s.mu.Unlock()
	return id
}

func (s *Server) lookup(id string) (bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bundles[id]
	if !ok {
		return bundle{}, fmt.Errorf("%w: %s", ErrUnknownDownload, id)
	}
	return b, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	b, err := s.lookup(r.PathValue("id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(b.archivePath)
	if err != nil {
		s.logger.Error("opening archive", "path", b.archivePath, "error", err)
		http.Error(w, "unable to load archive", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	name := strings.TrimSuffix(b.output.MarkdownName, ".md") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := s.lookup(id)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var body bytes.Buffer
	if err := s.markdown.Convert([]byte(b.output.Markdown), &body); err != nil {
		s.logger.Error("rendering preview", "id", id, "error", err)
		http.Error(w, "unable to render preview", http.StatusInternalServerError)
		return
	}

	title := b.title
	if title == "" {
		title = b.output.MarkdownName
	}
	var page strings.Builder
	page.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&page, "<base href=\"/api/bundles/%s/assets/\">", html.EscapeString(id))
	fmt.Fprintf(&page, "<title>%s</title></head>\n<body>\n", html.EscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page.String()))
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	b, err := s.lookup(r.PathValue("id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	name := r.PathValue("name")
	for _, a := range b.output.Assets {
		if a.Filename == name {
			w.Header().Set("Content-Type", http.DetectContentType(a.Content))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(a.Content)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondText(w, http.StatusOK, "ok")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondText(w http.ResponseWriter, status int, payload string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}
