package scanner

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Scanner discovers test case definition files.
type Scanner interface {
	Scan(root string) ([]string, error)
}

// Options selects which files a FileScanner reports. Patterns use forward
// slashes; ** matches any number of directories.
type Options struct {
	Include   []string
	Exclude   []string
	Recursive bool
}

// FileScanner implements Scanner using filepath.WalkDir.
type FileScanner struct {
	opts Options
}

// New creates a FileScanner.
func New(opts Options) *FileScanner {
	return &FileScanner{opts: opts}
}

// Scan walks root and returns the sorted definition files under it. Hidden
// directories are never entered.
func (s *FileScanner) Scan(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if !s.opts.Recursive || strings.HasPrefix(d.Name(), ".") || matchAny(rel, s.opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchAny(rel, s.opts.Exclude) {
			return nil
		}
		if matchAny(rel, s.opts.Include) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewError("scan", root, 0, "failed to scan directory", err)
	}

	sort.Strings(files)
	return files, nil
}

// ScanAll scans every root in order and returns the union without
// duplicates. Roots that cannot be scanned are logged and skipped.
func ScanAll(s Scanner, roots []string, log logrus.FieldLogger) []string {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		log.WithField("dir", root).Debug("Scanning directory")
		files, err := s.Scan(root)
		if err != nil {
			log.WithError(err).WithField("dir", root).Warn("Failed to scan directory")
			continue
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func matchAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if matchGlob(rel, p) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated relative path against pattern. A pattern
// without a slash is also matched against the base name.
func matchGlob(rel, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	if !strings.Contains(pattern, "**") {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			ok, _ := path.Match(pattern, path.Base(rel))
			return ok
		}
		return false
	}

	prefix, suffix, _ := strings.Cut(pattern, "**")
	prefix = strings.TrimSuffix(prefix, "/")
	suffix = strings.TrimPrefix(suffix, "/")
	if prefix != "" {
		if rel != prefix && !strings.HasPrefix(rel, prefix+"/") {
			return false
		}
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, prefix), "/")
	}
	if suffix == "" {
		return true
	}
	parts := strings.Split(rel, "/")
	for i := range parts {
		if ok, _ := path.Match(suffix, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}
