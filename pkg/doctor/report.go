package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// WriteReport renders check results grouped by CheckGroup. Colors are only
// emitted when w is a terminal.
func WriteReport(w io.Writer, groups []CheckGroup, summary Summary) error {
	r := lipgloss.NewRenderer(w)
	groupStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle := r.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle := r.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle := r.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle := r.NewStyle().Foreground(lipgloss.Color("240"))

	var lines []string
	for _, group := range groups {
		lines = append(lines, groupStyle.Render(group.Name))
		for _, check := range group.Checks {
			var icon string
			var iconStyle lipgloss.Style
			switch check.Status {
			case StatusOK:
				icon, iconStyle = "✓", okStyle
			case StatusMissing:
				icon, iconStyle = "✗", errStyle
			case StatusWarning:
				icon, iconStyle = "⚠", warnStyle
			default:
				icon, iconStyle = "!", errStyle
			}
			lines = append(lines, fmt.Sprintf("  %s %-8s %s", iconStyle.Render(icon), check.Name, dimStyle.Render(check.Message)))
			if check.Status == StatusMissing && check.FixCommand != nil {
				lines = append(lines, dimStyle.Render("      fix: "+check.FixCommand.Command))
			}
		}
	}

	parts := []string{fmt.Sprintf("%d ok", summary.OK)}
	if summary.Missing > 0 {
		parts = append(parts, errStyle.Render(fmt.Sprintf("%d missing", summary.Missing)))
	}
	if summary.Warnings > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d warnings", summary.Warnings)))
	}
	if summary.Errors > 0 {
		parts = append(parts, errStyle.Render(fmt.Sprintf("%d errors", summary.Errors)))
	}
	lines = append(lines, "", strings.Join(parts, ", "))

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
