package validate

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
)

// EducationalOptions tunes tutorial-notebook detection.
type EducationalOptions struct {
	NarrativeRatio      float64 // narrative share that must be exceeded
	MinNumberedVariants int     // x1, x2, x3 -> 3 variants of stem x
	MinRebindingCells   int     // one tutorial name bound in this many cells
	// TutorialNames are the throwaway names whose rebinding marks a lesson.
	// Case-sensitive; empty disables the rebinding signal.
	TutorialNames []string
}

// DefaultTutorialNames are the names lessons reuse from example to example.
var DefaultTutorialNames = []string{"x", "y", "X", "data", "model"}

func DefaultEducationalOptions() EducationalOptions {
	return EducationalOptions{
		NarrativeRatio:      0.5,
		MinNumberedVariants: 3,
		MinRebindingCells:   4,
		TutorialNames:       slices.Clone(DefaultTutorialNames),
	}
}

// IsZero reports whether no option was set.
func (o EducationalOptions) IsZero() bool {
	return o.NarrativeRatio == 0 && o.MinNumberedVariants == 0 && o.MinRebindingCells == 0 && o.TutorialNames == nil
}

var numberedName = regexp.MustCompile(`^([A-Za-z_]*[A-Za-z])_?(\d+)$`)

// DetectEducational decides once per notebook whether it reads like a
// tutorial: mostly prose, with names repeated in numbered form or the same
// tutorial name rebound across many cells. Working names like df that a
// cleaning pipeline reassigns step by step do not count.
func DetectEducational(cells []notebook.Cell, profiles []*parser.SymbolProfile, opts EducationalOptions) (bool, string) {
	if len(cells) == 0 {
		return false, ""
	}
	narrative := 0
	for _, c := range cells {
		if !c.IsCode() {
			narrative++
		}
	}
	ratio := float64(narrative) / float64(len(cells))
	if ratio <= opts.NarrativeRatio {
		return false, ""
	}

	variants := make(map[string]map[string]bool)
	bindingCells := make(map[string]int)
	for _, p := range profiles {
		if p == nil {
			continue
		}
		for _, name := range p.Defined {
			if p.IsImport(name) {
				continue
			}
			if slices.Contains(opts.TutorialNames, name) {
				bindingCells[name]++
			}
			if m := numberedName.FindStringSubmatch(name); m != nil {
				stem := strings.ToLower(m[1])
				if variants[stem] == nil {
					variants[stem] = make(map[string]bool)
				}
				variants[stem][name] = true
			}
		}
	}

	stems := make([]string, 0, len(variants))
	for stem, names := range variants {
		if len(names) >= opts.MinNumberedVariants {
			stems = append(stems, stem)
		}
	}
	if len(stems) > 0 {
		sort.Strings(stems)
		return true, fmt.Sprintf("%.0f%% narrative cells and numbered variables (%s1, %s2, ...)", ratio*100, stems[0], stems[0])
	}

	names := make([]string, 0)
	for name, count := range bindingCells {
		if count >= opts.MinRebindingCells {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		return true, fmt.Sprintf("%.0f%% narrative cells and %q rebound in %d cells", ratio*100, names[0], bindingCells[names[0]])
	}

	return false, ""
}
