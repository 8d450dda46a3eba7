package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions for consistent icons and indentation.
//
// Icon semantics:
//   ✓  success
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   ~  neutral info / state change

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF4A1"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F45E6E"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4C26E"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EC4F4"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

// printSection prints a top-level section header, e.g. "=== Index ===".
func printSection(title string) {
	fmt.Printf("\n%s\n", sectionStyle.Render("=== "+title+" ==="))
}

func printLine(w *os.File, icon lipgloss.Style, glyph, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon.Render(glyph), msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon.Render(glyph), name, msg)
	}
}

// printOK prints a success line.
//   name = "" → "  ✓  msg"
//   name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine(os.Stdout, okStyle, "✓", name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) { printLine(os.Stderr, errStyle, "✗", name, msg) }

// printWarn prints a warning line.
func printWarn(name, msg string) { printLine(os.Stdout, warnStyle, "⚠", name, msg) }

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) { printLine(os.Stdout, lipgloss.NewStyle().Faint(true), "○", name, msg) }

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) { printLine(os.Stdout, infoStyle, "~", name, msg) }
