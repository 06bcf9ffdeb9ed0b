// package formatter renders drift reports to various formats (styled text, Markdown, plain summary)
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/cratesync/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// section pairs one report category with its rendered lines. Rendering is
// read-only: building sections never mutates the report.
type section struct {
	name  string
	style lipgloss.Style
	lines []string
}

// sections flattens a report into its non-empty categories, in a fixed
// order so two renders of the same report are identical.
func sections(report *models.Report) []section {
	all := []section{
		{"Added", sectionStyle, changeLines(report.Added)},
		{"Moved", sectionStyle, changeLines(report.Moved)},
		{"Retitled", sectionStyle, changeLines(report.Retitled)},
		{"Deduplicated", warnStyle, changeLines(report.Deduplicated)},
		{"Confirmed", sectionStyle, changeLines(report.Confirmed)},
		{"Renamed", sectionStyle, changeLines(report.Renamed)},
		{"Orphaned", warnStyle, changeLines(report.Orphaned)},
		{"Kept local-only", warnStyle, changeLines(report.LocalOnly)},
		{"Removed", warnStyle, changeLines(report.Removed)},
		{"Missing", errStyle, changeLines(report.Missing)},
		{"Still pending", warnStyle, changeLines(report.StillPending)},
		{"Unmanaged files", warnStyle, stringLines(report.Unmanaged)},
		{"Ambiguous matches", errStyle, conflictLines(report.Ambiguous)},
		{"Rename conflicts", errStyle, conflictLines(report.RenameConflicts)},
	}

	var out []section
	for _, s := range all {
		if len(s.lines) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func changeLines(changes []models.Change) []string {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		line := fmt.Sprintf("%s - %s (%s)", c.Artist, c.Title, c.ID)
		if c.Artist == "" && c.Title == "" {
			line = c.ID
		}
		if c.Detail != "" {
			line = fmt.Sprintf("%s: %s", line, c.Detail)
		}
		lines = append(lines, line)
	}
	return lines
}

func conflictLines(conflicts []models.Conflict) []string {
	lines := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		line := fmt.Sprintf("%s: %s", c.ID, c.Path)
		if c.Other != "" {
			line = fmt.Sprintf("%s vs %s", line, c.Other)
		}
		if c.Reason != "" {
			line = fmt.Sprintf("%s (%s)", line, c.Reason)
		}
		lines = append(lines, line)
	}
	return lines
}

func stringLines(names []string) []string {
	return append([]string(nil), names...)
}

// reportTitle names a report for humans: the run kind plus the playlist.
func reportTitle(report *models.Report) string {
	kind := "Reconciliation"
	switch report.Kind {
	case models.KindExtract.String():
		kind = "Extraction"
	case models.KindConsolidate.String():
		kind = "Consolidation"
	}

	name := report.PlaylistName
	if name == "" {
		name = report.PlaylistID
	}
	return fmt.Sprintf("%s report: %s", kind, name)
}

// Summary folds a report into one plain line of non-zero category counts,
// e.g. "3 added, 2 confirmed, 1 missing". Empty reports yield "no drift".
func Summary(report *models.Report) string {
	type count struct {
		label string
		n     int
	}
	counts := []count{
		{"added", len(report.Added)},
		{"moved", len(report.Moved)},
		{"retitled", len(report.Retitled)},
		{"deduplicated", len(report.Deduplicated)},
		{"confirmed", len(report.Confirmed)},
		{"renamed", len(report.Renamed)},
		{"orphaned", len(report.Orphaned)},
		{"kept local-only", len(report.LocalOnly)},
		{"removed", len(report.Removed)},
		{"missing", len(report.Missing)},
		{"still pending", len(report.StillPending)},
		{"unmanaged", len(report.Unmanaged)},
		{"ambiguous", len(report.Ambiguous)},
		{"rename conflicts", len(report.RenameConflicts)},
	}

	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	if len(parts) == 0 {
		return "no drift"
	}
	return strings.Join(parts, ", ")
}

// CountsSummary renders persisted run counts the same way [Summary] renders
// a live report.
func CountsSummary(counts models.RunCounts) string {
	type count struct {
		label string
		n     int
	}
	all := []count{
		{"added", counts.Added},
		{"moved", counts.Moved},
		{"confirmed", counts.Confirmed},
		{"renamed", counts.Renamed},
		{"orphaned", counts.Orphaned},
		{"kept local-only", counts.LocalOnly},
		{"removed", counts.Removed},
		{"missing", counts.Missing},
		{"unmanaged", counts.Unmanaged},
		{"ambiguous", counts.Ambiguous},
		{"rename conflicts", counts.Conflicts},
	}

	var parts []string
	for _, c := range all {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	if len(parts) == 0 {
		return "no drift"
	}
	return strings.Join(parts, ", ")
}

// ExportToText renders a report as styled terminal text, grouped by
// category with counts and identifiers.
func ExportToText(report *models.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	var buf bytes.Buffer

	buf.WriteString(titleStyle.Render(reportTitle(report)))
	buf.WriteString("\n")
	if report.PlaylistID != "" {
		buf.WriteString(faintStyle.Render(fmt.Sprintf("playlist %s", report.PlaylistID)))
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	secs := sections(report)
	if len(secs) == 0 {
		buf.WriteString("Everything in sync; no drift detected.\n")
		return buf.Bytes(), nil
	}

	for _, s := range secs {
		buf.WriteString(s.style.Render(fmt.Sprintf("%s (%d)", s.name, len(s.lines))))
		buf.WriteString("\n")
		for _, line := range s.lines {
			buf.WriteString(fmt.Sprintf("  • %s\n", line))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(faintStyle.Render(Summary(report)))
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a report as Markdown, one heading per category.
func ExportToMarkdown(report *models.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", reportTitle(report)))
	if report.PlaylistID != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: `%s`\n\n", report.PlaylistID))
	}

	secs := sections(report)
	if len(secs) == 0 {
		buf.WriteString("Everything in sync; no drift detected.\n")
		return buf.Bytes(), nil
	}

	for _, s := range secs {
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", s.name, len(s.lines)))
		for _, line := range s.lines {
			buf.WriteString(fmt.Sprintf("- %s\n", line))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("**Summary**: %s\n", Summary(report)))

	return buf.Bytes(), nil
}
