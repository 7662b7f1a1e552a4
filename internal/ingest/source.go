package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/benchscan/internal/model"
)

// textExtensions are the extensions treated as plain text when expanding
// a directory. Files named directly by the user are always accepted.
var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

// FileSource loads one benchmark document from disk. It implements the
// batch processor's DocumentSource interface.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ID returns the document ID: the file name without its extension.
func (s *FileSource) ID() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Path returns the source file path.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and decodes the document. PDF files go through the pdfcpu
// reader; everything else is read as plain text with form-feed page
// separators.
func (s *FileSource) Load(ctx context.Context) (model.Document, error) {
	select {
	case <-ctx.Done():
		return model.Document{}, ctx.Err()
	default:
	}

	var pages []string
	var err error
	if strings.EqualFold(filepath.Ext(s.path), ".pdf") {
		pages, err = readPDF(s.path)
	} else {
		pages, err = readText(s.path)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("read document %s: %w", s.path, err)
	}

	return model.Document{ID: s.ID(), Pages: pages}, nil
}

// Expand resolves a mix of file and directory paths into file sources.
// Directories contribute their text and PDF files (non-recursive, sorted
// by name); explicitly named files are accepted as-is.
func Expand(paths []string) ([]*FileSource, error) {
	var sources []*FileSource
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat input %s: %w", path, err)
		}

		if !info.IsDir() {
			sources = append(sources, NewFileSource(path))
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read input directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext == ".pdf" || textExtensions[ext] {
				sources = append(sources, NewFileSource(filepath.Join(path, entry.Name())))
			}
		}
	}
	return sources, nil
}
