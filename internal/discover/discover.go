// Package discover expands command line arguments into notebook paths.
package discover

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile holds gitignore-style rules, read from each directory root.
const IgnoreFile = ".nb2prodignore"

// NotebookExt is the only extension picked up when walking directories.
const NotebookExt = ".ipynb"

// DefaultRules are applied before user rules, so a user rule can re-include.
var DefaultRules = []string{
	".ipynb_checkpoints/",
	".git/",
	"__pycache__/",
	".venv/",
	"venv/",
	"node_modules/",
	"site-packages/",
}

// Matcher decides which paths under a root are skipped.
type Matcher struct {
	gi *ignore.GitIgnore
}

// NewMatcher compiles DefaultRules followed by userRules.
func NewMatcher(userRules []string) *Matcher {
	lines := make([]string, 0, len(DefaultRules)+len(userRules))
	lines = append(lines, DefaultRules...)
	lines = append(lines, userRules...)
	return &Matcher{gi: ignore.CompileIgnoreLines(lines...)}
}

// ShouldIgnore reports whether relPath (slash or OS separated) is excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	if isDir && !strings.HasSuffix(relPath, "/") {
		relPath += "/"
	}
	return m.gi.MatchesPath(relPath)
}

// LoadIgnoreRules reads root/.nb2prodignore. A missing file means no rules.
func LoadIgnoreRules(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}
	defer f.Close()

	var rules []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", IgnoreFile, err)
	}
	return rules, nil
}

// Notebooks resolves args to notebook files. Files are taken as given;
// directories are walked for *.ipynb honoring DefaultRules and the
// directory's own .nb2prodignore. The result keeps argument order,
// directory hits are sorted, and duplicates are dropped.
func Notebooks(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := walk(arg)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			add(path)
		}
	}
	return out, nil
}

func walk(root string) ([]string, error) {
	rules, err := LoadIgnoreRules(root)
	if err != nil {
		return nil, err
	}
	matcher := NewMatcher(rules)

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), NotebookExt) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(found)
	return found, nil
}
