package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/issues"
)

var (
	goodColor    = lipgloss.Color("#10B981")
	warnColor    = lipgloss.Color("#F59E0B")
	badColor     = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")
	accentColor  = lipgloss.Color("#A78BFA")
	borderColor  = lipgloss.Color("#6B7280")
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	nameStyle    = lipgloss.NewStyle().Bold(true)

	scoreBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 2)
)

func scoreColor(score int) lipgloss.Color {
	switch {
	case score >= 8:
		return goodColor
	case score >= 5:
		return warnColor
	default:
		return badColor
	}
}

func severityStyle(s issues.Severity) lipgloss.Style {
	switch s {
	case issues.SeverityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(badColor)
	case issues.SeverityWarning:
		return lipgloss.NewStyle().Foreground(warnColor)
	default:
		return mutedStyle
	}
}

// RenderOptions controls the text report.
type RenderOptions struct {
	// ShowRejected lists every rejected grouping, not just the count.
	ShowRejected bool
	// ShowEdges lists the dependency edges.
	ShowEdges bool
}

// RenderText writes a human readable report.
func RenderText(w io.Writer, r *Report, opts RenderOptions) error {
	var b strings.Builder

	title := r.Notebook
	if title == "" {
		title = "notebook"
	}
	b.WriteString(headingStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %d cells (%d code, %d narrative, %d empty) · %s",
		r.Language, r.Stats.Total, r.Stats.Code, r.Stats.Narrative, r.Stats.Empty, r.Fingerprint)))
	b.WriteString("\n\n")

	scoreLine := lipgloss.NewStyle().Bold(true).Foreground(scoreColor(r.Score)).
		Render(fmt.Sprintf("Readiness %d/10 (%s)", r.Score, Grade(r.Score)))
	b.WriteString(scoreBox.Render(scoreLine))
	b.WriteString("\n\n")

	writeIssues(&b, r)
	writeCandidates(&b, r)
	writeRejected(&b, r, opts.ShowRejected)
	writeGraph(&b, r, opts.ShowEdges)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeIssues(b *strings.Builder, r *Report) {
	var shown []issues.Issue
	for _, issue := range r.Issues {
		if issue.Kind != issues.CandidateRejected {
			shown = append(shown, issue)
		}
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("Issues (%d)", len(shown))))
	b.WriteString("\n")
	if len(shown) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(goodColor).Render("  no major issues"))
		b.WriteString("\n\n")
		return
	}
	for _, issue := range shown {
		label := severityStyle(issue.Severity).Render(fmt.Sprintf("%-8s", issue.Severity))
		where := ""
		if len(issue.Cells) > 0 {
			where = " cells " + issues.FormatCells(issue.Cells)
		}
		fmt.Fprintf(b, "  %s %s%s: %s\n", label, issue.Kind, where, issue.Detail)
	}
	b.WriteString("\n")
}

func writeCandidates(b *strings.Builder, r *Report) {
	b.WriteString(headingStyle.Render(fmt.Sprintf("Functions (%d)", len(r.Candidates))))
	b.WriteString("\n")
	if len(r.Candidates) == 0 {
		b.WriteString(mutedStyle.Render("  none extracted"))
		b.WriteString("\n\n")
		return
	}
	for _, c := range r.Candidates {
		fmt.Fprintf(b, "  %s %s\n", nameStyle.Render(c.Signature()),
			mutedStyle.Render("cells "+issues.FormatCells(c.Cells)+" · "+string(c.Category)))
	}
	b.WriteString("\n")
}

func writeRejected(b *strings.Builder, r *Report, detailed bool) {
	if len(r.Rejected) == 0 {
		return
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("Rejected groupings (%d)", len(r.Rejected))))
	b.WriteString("\n")
	if !detailed {
		counts := make(map[string]int)
		var order []string
		for _, v := range r.Rejected {
			rule := string(v.Rule)
			if counts[rule] == 0 {
				order = append(order, rule)
			}
			counts[rule]++
		}
		parts := make([]string, len(order))
		for i, rule := range order {
			parts[i] = fmt.Sprintf("%s=%d", rule, counts[rule])
		}
		b.WriteString(mutedStyle.Render("  " + strings.Join(parts, " ")))
		b.WriteString("\n\n")
		return
	}
	for _, v := range r.Rejected {
		fmt.Fprintf(b, "  cells %-8s %-18s %s\n", issues.FormatCells(v.Cells), v.Rule, mutedStyle.Render(v.Detail))
	}
	b.WriteString("\n")
}

func writeGraph(b *strings.Builder, r *Report, withEdges bool) {
	if len(r.Central) > 0 {
		b.WriteString(headingStyle.Render("Most referenced cells"))
		b.WriteString("\n")
		for _, c := range r.Central {
			fmt.Fprintf(b, "  cell %-4d in=%d out=%d %s\n", c.Cell, c.InDegree, c.OutDegree,
				mutedStyle.Render(fmt.Sprintf("%.3f", c.Centrality)))
		}
		b.WriteString("\n")
	}
	if !withEdges || len(r.Edges) == 0 {
		return
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("Edges (%d)", len(r.Edges))))
	b.WriteString("\n")
	for _, e := range r.Edges {
		fmt.Fprintf(b, "  %d -> %d %s\n", e.Producer, e.Consumer, e.Symbol)
	}
	b.WriteString("\n")
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	return fileutil.PrintJSON(w, r)
}
