package ingest

import (
	"os"
	"strings"
)

// readText reads a plain-text document. Form feeds mark page boundaries,
// matching the output of common pdf-to-text converters; a file without
// form feeds is a single page.
func readText(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided document path is intentional
	if err != nil {
		return nil, err
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	pages := strings.Split(text, "\f")

	// Drop a trailing empty page from a terminating form feed, but keep
	// interior empty pages so page numbering stays aligned with the
	// source.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}
