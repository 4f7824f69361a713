// Package issues defines the taxonomy of findings accumulated during an
// analysis run. Only a ParseFailure stops a run; every other kind is recorded
// and the run continues.
package issues

import (
	"fmt"
	"sort"
	"strings"
)

// Kind names a class of finding.
type Kind string

const (
	ParseFailure                Kind = "ParseFailure"
	ForwardDependency           Kind = "ForwardDependency"
	EducationalNotebookDetected Kind = "EducationalNotebookDetected"
	CandidateRejected           Kind = "CandidateRejected"
	HardcodedPathDetected       Kind = "HardcodedPathDetected"
	UnparsableCell              Kind = "UnparsableCell"
	NoFunctionsDefined          Kind = "NoFunctionsDefined"
)

// Severity orders findings for reporting.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// SeverityOf returns the fixed severity of a kind.
func SeverityOf(kind Kind) Severity {
	switch kind {
	case ParseFailure, ForwardDependency:
		return SeverityCritical
	case EducationalNotebookDetected, HardcodedPathDetected, UnparsableCell:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Issue is a single finding. Cells lists the notebook indices it concerns;
// Rule is set only for CandidateRejected.
type Issue struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Cells    []int    `json:"cells,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	Detail   string   `json:"detail"`
}

func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", i.Severity, i.Kind)
	if len(i.Cells) > 0 {
		fmt.Fprintf(&b, " cells=%s", FormatCells(i.Cells))
	}
	if i.Rule != "" {
		fmt.Fprintf(&b, " rule=%s", i.Rule)
	}
	if i.Detail != "" {
		fmt.Fprintf(&b, ": %s", i.Detail)
	}
	return b.String()
}

// List accumulates issues in the order they were raised.
type List struct {
	items []Issue
}

// Add records an issue, filling in its severity from its kind.
func (l *List) Add(issue Issue) {
	if issue.Severity == "" {
		issue.Severity = SeverityOf(issue.Kind)
	}
	if len(issue.Cells) > 0 {
		issue.Cells = append([]int(nil), issue.Cells...)
	}
	l.items = append(l.items, issue)
}

// Addf is shorthand for Add with a formatted detail.
func (l *List) Addf(kind Kind, cells []int, format string, args ...any) {
	l.Add(Issue{Kind: kind, Cells: cells, Detail: fmt.Sprintf(format, args...)})
}

// All returns a copy of every issue in raise order.
func (l *List) All() []Issue {
	return append([]Issue(nil), l.items...)
}

// ByKind returns the issues of one kind in raise order.
func (l *List) ByKind(kind Kind) []Issue {
	var out []Issue
	for _, issue := range l.items {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// Count returns how many issues of kind were raised.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, issue := range l.items {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the total number of issues.
func (l *List) Len() int {
	return len(l.items)
}

// Sorted returns the issues ordered by severity, then by first cell. The
// relative order of equal issues is preserved.
func (l *List) Sorted() []Issue {
	out := l.All()
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].Severity.rank(), out[b].Severity.rank()
		if ra != rb {
			return ra < rb
		}
		return firstCell(out[a]) < firstCell(out[b])
	})
	return out
}

func firstCell(issue Issue) int {
	if len(issue.Cells) == 0 {
		return -1
	}
	return issue.Cells[0]
}

// FormatCells renders indices compactly, collapsing consecutive runs: 1-3,5.
func FormatCells(cells []int) string {
	if len(cells) == 0 {
		return ""
	}
	var parts []string
	start, prev := cells[0], cells[0]
	flush := func() {
		if start == prev {
			parts = append(parts, fmt.Sprintf("%d", start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, c := range cells[1:] {
		if c == prev+1 {
			prev = c
			continue
		}
		flush()
		start, prev = c, c
	}
	flush()
	return strings.Join(parts, ",")
}
