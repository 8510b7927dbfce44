package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ondemand/pkg/orchestrator"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSkipped = "–"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printStats prints graph statistics on a single line.
func printStats(units, edges, skipped int) {
	parts := []string{fmt.Sprintf("%d units", units), fmt.Sprintf("%d edges", edges)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// =============================================================================
// Session Summary
// =============================================================================

// summaryTable renders one row per unit processed by rep, in build order,
// followed by the skipped keys.
func summaryTable(rep *orchestrator.Report) string {
	rows := make([][]string, 0, len(rep.Outcomes)+len(rep.Skipped))
	for i, o := range rep.Outcomes {
		status, exit := iconSuccess, ""
		if !o.Success {
			status, exit = iconError, strconv.Itoa(o.ExitCode)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1), status, o.Unit, string(o.Kind), exit,
			o.Duration.Round(time.Millisecond).String(),
		})
	}
	for _, key := range rep.Skipped {
		rows = append(rows, []string{"", iconSkipped, key, "skipped", "", ""})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "", "Unit", "Failure", "Exit", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row >= len(rep.Outcomes) {
				return base.Foreground(colorDim)
			}
			if col == 1 || col == 2 {
				if rep.Outcomes[row].Success {
					return base.Foreground(colorGreen)
				}
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorGray)
		})
	return t.Render()
}

// printSummary prints the session table and a one-line verdict.
func printSummary(rep *orchestrator.Report) {
	if len(rep.Outcomes) == 0 && len(rep.Skipped) == 0 {
		printInfo("Nothing to %s", rep.Mode)
		return
	}
	fmt.Println(summaryTable(rep))

	failed := len(rep.Failures())
	elapsed := rep.Finished.Sub(rep.Started).Round(time.Millisecond)
	switch {
	case failed == 0:
		printSuccess("%d built, %d skipped (%s)", len(rep.Outcomes), len(rep.Skipped), elapsed)
	default:
		printError("%d of %d failed (%s)", failed, len(rep.Outcomes), elapsed)
		for _, o := range rep.Failures() {
			printDetail("%s", o.Reason)
		}
	}
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
