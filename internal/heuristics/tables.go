// Package heuristics holds the fixed pattern tables used to categorize cells,
// name function candidates and guess type hints. Tables are immutable once
// built and are passed explicitly to the components that consult them.
package heuristics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/morozRed/nb2prod/internal/notebook"
)

// MatchKind selects what a type rule is matched against.
type MatchKind string

const (
	// MatchCall matches the right-hand side that produced the value.
	MatchCall MatchKind = "call"
	// MatchName matches the variable name itself (case-insensitive).
	MatchName MatchKind = "name"
)

// AnyType is the placeholder hint for names no rule recognizes.
const AnyType = "Any"

// CategoryRule tags a cell with Category when its source matches patterns.
type CategoryRule struct {
	Category notebook.Category `yaml:"category"`
	Patterns []string          `yaml:"patterns"`
}

// NameRule maps a keyword pattern found in member source to a function name.
// An empty Category applies to every category.
type NameRule struct {
	Pattern  string            `yaml:"pattern"`
	Category notebook.Category `yaml:"category,omitempty"`
	Name     string            `yaml:"name"`
}

// TypeRule maps a name or call pattern to a type hint.
type TypeRule struct {
	Match   MatchKind `yaml:"match"`
	Pattern string    `yaml:"pattern"`
	Type    string    `yaml:"type"`
}

type compiledCategory struct {
	category notebook.Category
	patterns []*regexp.Regexp
}

type compiledName struct {
	rule NameRule
	re   *regexp.Regexp
}

type compiledType struct {
	rule TypeRule
	re   *regexp.Regexp
}

// Tables is the compiled, read-only set of heuristics.
type Tables struct {
	categories   []compiledCategory
	names        []compiledName
	types        []compiledType
	defaultNames map[notebook.Category]string
}

// Definition is the uncompiled, serializable form of Tables.
type Definition struct {
	Categories   []CategoryRule               `yaml:"categories,omitempty"`
	Names        []NameRule                   `yaml:"names,omitempty"`
	Types        []TypeRule                   `yaml:"types,omitempty"`
	DefaultNames map[notebook.Category]string `yaml:"default_names,omitempty"`
}

// Compile validates a Definition and builds Tables from it.
func Compile(def Definition) (*Tables, error) {
	t := &Tables{defaultNames: make(map[notebook.Category]string, len(def.DefaultNames))}

	for _, rule := range def.Categories {
		if _, ok := notebook.ParseCategory(string(rule.Category)); !ok {
			return nil, fmt.Errorf("category rule: unknown category %q", rule.Category)
		}
		cc := compiledCategory{category: rule.Category}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("category %s: invalid pattern %q: %w", rule.Category, pattern, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		t.categories = append(t.categories, cc)
	}

	for _, rule := range def.Names {
		if rule.Category != "" {
			if _, ok := notebook.ParseCategory(string(rule.Category)); !ok {
				return nil, fmt.Errorf("name rule %q: unknown category %q", rule.Name, rule.Category)
			}
		}
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("name rule %q: empty name", rule.Pattern)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("name rule %q: invalid pattern: %w", rule.Name, err)
		}
		t.names = append(t.names, compiledName{rule: rule, re: re})
	}

	for _, rule := range def.Types {
		pattern := rule.Pattern
		switch rule.Match {
		case MatchName:
			pattern = "(?i)" + pattern
		case MatchCall:
		default:
			return nil, fmt.Errorf("type rule %q: unknown match kind %q", rule.Pattern, rule.Match)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("type rule %q: invalid pattern: %w", rule.Pattern, err)
		}
		t.types = append(t.types, compiledType{rule: rule, re: re})
	}

	for category, name := range def.DefaultNames {
		if _, ok := notebook.ParseCategory(string(category)); !ok {
			return nil, fmt.Errorf("default name: unknown category %q", category)
		}
		t.defaultNames[category] = name
	}

	return t, nil
}

// Categorize scores each category by the number of its patterns found in
// source. Import-only cells and cells without any hit are CategoryOther; ties
// go to the category listed first.
func (t *Tables) Categorize(source string) notebook.Category {
	if isImportOnly(source) {
		return notebook.CategoryOther
	}

	best := notebook.CategoryOther
	bestScore := 0
	for _, cc := range t.categories {
		score := 0
		for _, re := range cc.patterns {
			if re.MatchString(source) {
				score++
			}
		}
		if score > bestScore {
			best = cc.category
			bestScore = score
		}
	}
	return best
}

// FunctionName picks a name for a grouping of category whose member source is
// text. The first matching rule wins; otherwise the category default is used.
func (t *Tables) FunctionName(category notebook.Category, text string) string {
	for _, cn := range t.names {
		if cn.rule.Category != "" && cn.rule.Category != category {
			continue
		}
		if cn.re.MatchString(text) {
			return cn.rule.Name
		}
	}
	if name, ok := t.defaultNames[category]; ok {
		return name
	}
	return "process_data"
}

// TypeHint infers a type for name, preferring call rules matched against the
// expression that produced it.
func (t *Tables) TypeHint(name, producer string) string {
	if producer != "" {
		for _, ct := range t.types {
			if ct.rule.Match == MatchCall && ct.re.MatchString(producer) {
				return ct.rule.Type
			}
		}
	}
	for _, ct := range t.types {
		if ct.rule.Match == MatchName && ct.re.MatchString(name) {
			return ct.rule.Type
		}
	}
	return AnyType
}

// Merge returns new Tables whose rules are overrides' rules followed by t's,
// so overrides win on first match. Default names in overrides replace t's.
func (t *Tables) Merge(overrides *Tables) *Tables {
	if overrides == nil {
		return t
	}
	out := &Tables{defaultNames: make(map[notebook.Category]string, len(t.defaultNames))}
	out.categories = append(append(out.categories, overrides.categories...), t.categories...)
	out.names = append(append(out.names, overrides.names...), t.names...)
	out.types = append(append(out.types, overrides.types...), t.types...)
	for k, v := range t.defaultNames {
		out.defaultNames[k] = v
	}
	for k, v := range overrides.defaultNames {
		out.defaultNames[k] = v
	}
	return out
}

// isImportOnly reports whether every statement line of source is part of an
// import. Magic and shell lines are ignored.
func isImportOnly(source string) bool {
	sawImport := false
	openParens := 0
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		if openParens > 0 {
			openParens += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
			continue
		}
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "from ") {
			return false
		}
		sawImport = true
		openParens = strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
	}
	return sawImport
}
