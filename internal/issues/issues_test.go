package issues

import (
	"strings"
	"testing"
)

func TestListAccumulatesWithSeverity(t *testing.T) {
	var list List
	list.Add(Issue{Kind: CandidateRejected, Cells: []int{2, 3}, Rule: "hardcoded-path"})
	list.Addf(ForwardDependency, []int{1}, "%q is defined later in cell %d", "df", 5)
	list.Add(Issue{Kind: HardcodedPathDetected, Cells: []int{2}})

	if list.Len() != 3 {
		t.Fatalf("expected 3 issues, got %d", list.Len())
	}
	if got := list.Count(ForwardDependency); got != 1 {
		t.Fatalf("expected 1 forward dependency, got %d", got)
	}

	all := list.All()
	if all[0].Severity != SeverityInfo || all[1].Severity != SeverityCritical || all[2].Severity != SeverityWarning {
		t.Fatalf("unexpected severities: %+v", all)
	}

	sorted := list.Sorted()
	if sorted[0].Kind != ForwardDependency || sorted[1].Kind != HardcodedPathDetected || sorted[2].Kind != CandidateRejected {
		t.Fatalf("unexpected sort order: %+v", sorted)
	}
}

func TestAddCopiesCells(t *testing.T) {
	var list List
	cells := []int{4, 5}
	list.Add(Issue{Kind: CandidateRejected, Cells: cells})
	cells[0] = 99

	if got := list.All()[0].Cells[0]; got != 4 {
		t.Fatalf("issue cells aliased caller slice, got %d", got)
	}
}

func TestFormatCells(t *testing.T) {
	cases := map[string][]int{
		"":          nil,
		"3":         {3},
		"1-3":       {1, 2, 3},
		"1-2,5,7-8": {1, 2, 5, 7, 8},
	}
	for want, cells := range cases {
		if got := FormatCells(cells); got != want {
			t.Fatalf("FormatCells(%v) = %q, want %q", cells, got, want)
		}
	}
}

func TestIssueString(t *testing.T) {
	issue := Issue{Kind: CandidateRejected, Severity: SeverityInfo, Cells: []int{2, 3}, Rule: "size", Detail: "too many cells"}
	got := issue.String()
	for _, part := range []string{"[info]", "CandidateRejected", "cells=2-3", "rule=size", "too many cells"} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in %q", part, got)
		}
	}
}
