package validate

import (
	"regexp"
	"strings"
)

// pathPatterns match absolute paths (/a/b, /data.csv), home-relative paths
// (~/x), drive letters (C:\data) and ./ or ../ relative paths to a file.
var pathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/[^/\s]+(/[^/\s]*)+$`),
	regexp.MustCompile(`^/[^/\s]+\.[A-Za-z0-9]+$`),
	regexp.MustCompile(`^~[\\/]`),
	regexp.MustCompile(`^[A-Za-z]:[\\/]`),
	regexp.MustCompile(`^\.\.?[\\/]\S*\.[A-Za-z0-9]+$`),
}

// LooksLikePath reports whether a string literal resembles a filesystem path
// tied to one machine.
func LooksLikePath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "\n\r") {
		return false
	}
	for _, re := range pathPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// HardcodedPaths returns the path-like literals among strings, in order.
func HardcodedPaths(strs []string) []string {
	var out []string
	for _, s := range strs {
		if LooksLikePath(s) {
			out = append(out, s)
		}
	}
	return out
}
