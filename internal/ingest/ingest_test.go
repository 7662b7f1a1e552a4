package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestReadTextPages tests form-feed page splitting.
func TestReadTextPages(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		content       string
		expectedPages []string
	}{
		{
			name:          "single page",
			content:       "1 Account Policies\n1.1.1 Ensure 'X' is set to '1'",
			expectedPages: []string{"1 Account Policies\n1.1.1 Ensure 'X' is set to '1'"},
		},
		{
			name:          "form feed separates pages",
			content:       "page one\fpage two\fpage three",
			expectedPages: []string{"page one", "page two", "page three"},
		},
		{
			name:          "trailing form feed drops the empty page",
			content:       "page one\f",
			expectedPages: []string{"page one"},
		},
		{
			name:          "interior empty page is preserved",
			content:       "page one\f\fpage three",
			expectedPages: []string{"page one", "", "page three"},
		},
		{
			name:          "windows line endings normalized",
			content:       "line one\r\nline two",
			expectedPages: []string{"line one\nline two"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "doc.txt")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatal(err)
			}

			pages, err := readText(path)
			if err != nil {
				t.Fatalf("readText(): %v", err)
			}
			if len(pages) != len(tc.expectedPages) {
				t.Fatalf("pages: got %d, expected %d", len(pages), len(tc.expectedPages))
			}
			for i := range pages {
				if pages[i] != tc.expectedPages[i] {
					t.Errorf("page %d: got %q, expected %q", i, pages[i], tc.expectedPages[i])
				}
			}
		})
	}
}

// TestFileSourceID tests document ID derivation from the file name.
func TestFileSourceID(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path     string
		expected string
	}{
		{"/bench/cis-win11.txt", "cis-win11"},
		{"cis-win11.pdf", "cis-win11"},
		{"/bench/noext", "noext"},
		{"archive.v2.txt", "archive.v2"},
	}

	for _, tc := range testCases {
		if got := NewFileSource(tc.path).ID(); got != tc.expected {
			t.Errorf("ID(%q): got %q, expected %q", tc.path, got, tc.expected)
		}
	}
}

// TestFileSourceLoad tests loading and failure isolation.
func TestFileSourceLoad(t *testing.T) {
	t.Parallel()

	t.Run("text document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bench.txt")
		if err := os.WriteFile(path, []byte("page one\fpage two"), 0o600); err != nil {
			t.Fatal(err)
		}

		doc, err := NewFileSource(path).Load(context.Background())
		if err != nil {
			t.Fatalf("Load(): %v", err)
		}
		if doc.ID != "bench" {
			t.Errorf("id: got %q, expected bench", doc.ID)
		}
		if doc.PageCount() != 2 {
			t.Errorf("pages: got %d, expected 2", doc.PageCount())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.txt")).Load(context.Background())
		if err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewFileSource("irrelevant.txt").Load(ctx)
		if err == nil {
			t.Fatal("expected a cancellation error")
		}
	})
}

// TestExpand tests directory expansion into file sources.
func TestExpand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.pdf", "c.md", "ignored.exe"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatal(err)
	}
	explicit := filepath.Join(t.TempDir(), "named.data")
	if err := os.WriteFile(explicit, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	sources, err := Expand([]string{dir, explicit})
	if err != nil {
		t.Fatalf("Expand(): %v", err)
	}

	var ids []string
	for _, s := range sources {
		ids = append(ids, s.ID())
	}

	// Directory contributes the supported files; the explicitly named
	// file is accepted regardless of extension.
	expected := map[string]bool{"a": true, "b": true, "c": true, "named": true}
	if len(ids) != len(expected) {
		t.Fatalf("sources: got %v, expected %d entries", ids, len(expected))
	}
	for _, id := range ids {
		if !expected[id] {
			t.Errorf("unexpected source %q", id)
		}
	}

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		if _, err := Expand([]string{filepath.Join(dir, "absent")}); err == nil {
			t.Error("expected an error for a missing input")
		}
	})
}
