package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/aretw0/leadflow/pkg/domain"
)

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)

const barWidth = 24

// Indicator renders the step list with status markers and a progress bar.
func Indicator(ind domain.IndicatorView) string {
	parts := make([]string, 0, len(ind.Entries))
	for _, e := range ind.Entries {
		switch e.Status {
		case domain.StepCompleted:
			parts = append(parts, doneStyle.Render("✓ "+e.Title))
		case domain.StepCurrent:
			parts = append(parts, currentStyle.Render("● "+e.Title))
		default:
			parts = append(parts, pendingStyle.Render("○ "+e.Title))
		}
	}

	filled := int(ind.Progress / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) + pendingStyle.Render(strings.Repeat("░", barWidth-filled))

	return fmt.Sprintf("%s\n%s %.0f%%", strings.Join(parts, pendingStyle.Render(" ─ ")), bar, ind.Progress)
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
