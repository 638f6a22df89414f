package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/gzip"
)

const (
	pageDir    = "pages"
	pageSuffix = ".gz"
)

func (s *Storage) pagePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid page name %q", name)
	}
	return filepath.Join(s.dataDir, pageDir, name+pageSuffix), nil
}

// ArchivePage stores a gzip-compressed copy of a fetched page, replacing any
// earlier copy of the same name.
func (s *Storage) ArchivePage(name string, body []byte) error {
	path, err := s.pagePath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+".*")
	if err != nil {
		return fmt.Errorf("creating page file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	zw, err := gzip.NewWriterLevel(tmp, gzip.BestCompression)
	if err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	zw.Name = name
	if _, err := zw.Write(body); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("compressing page: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("compressing page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}

// LoadPage returns the decompressed body of an archived page.
func (s *Storage) LoadPage(name string) ([]byte, error) {
	path, err := s.pagePath(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close() // nolint:errcheck

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", name, err)
	}
	defer zr.Close() // nolint:errcheck

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", name, err)
	}
	return body, nil
}

// GlobPages returns the names of archived pages matching pattern, sorted.
// Patterns use doublestar syntax, e.g. "team-*.html" or "{player,team}-*".
func (s *Storage) GlobPages(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid page pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(filepath.Join(s.dataDir, pageDir)), pattern+pageSuffix)
	if err != nil {
		return nil, fmt.Errorf("matching pages: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, pageSuffix))
	}
	sort.Strings(names)
	return names, nil
}
