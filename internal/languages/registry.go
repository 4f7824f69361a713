package languages

import "github.com/morozRed/nb2prod/internal/parser"

// NewDefaultRegistry creates a registry with all supported cell analyzers.
// Each call builds fresh parsers, so concurrent runs should each call it.
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewPythonAnalyzer())

	return r
}
