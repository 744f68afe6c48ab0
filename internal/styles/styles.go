// Package styles renders graft's terminal output with lipgloss.
//
// A Theme is bound to the writer it renders for: colors are emitted only
// when that writer is a color-capable terminal, so output captured by
// scripts or tests is plain text.
package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Colors meet WCAG AA contrast on dark backgrounds.
var (
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue
)

// Status markers used by doctor-style reports.
const (
	StatusOK   = "ok"
	StatusMiss = "miss"
	StatusWarn = "warn"
)

// Theme holds the styles for one output stream.
type Theme struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Branch  lipgloss.Style
	Path    lipgloss.Style
	Session lipgloss.Style
}

// New returns a theme that renders for w.
func New(w io.Writer) *Theme {
	r := lipgloss.NewRenderer(w)
	return &Theme{
		Title:   r.NewStyle().Bold(true).Foreground(PrimaryColor),
		Success: r.NewStyle().Foreground(SecondaryColor),
		Warning: r.NewStyle().Bold(true).Foreground(WarningColor),
		Error:   r.NewStyle().Bold(true).Foreground(ErrorColor),
		Muted:   r.NewStyle().Foreground(MutedColor),
		Branch:  r.NewStyle().Foreground(SecondaryColor),
		Path:    r.NewStyle().Foreground(BlueColor),
		Session: r.NewStyle().Foreground(PrimaryColor),
	}
}

// Plain returns a theme that never adds escape sequences.
func Plain() *Theme {
	s := lipgloss.NewStyle()
	return &Theme{Title: s, Success: s, Warning: s, Error: s, Muted: s, Branch: s, Path: s, Session: s}
}

// Warn formats a best-effort failure line.
func (t *Theme) Warn(msg string) string {
	return t.Warning.Render("warn:") + " " + msg
}

// Err formats a fatal error line.
func (t *Theme) Err(msg string) string {
	return t.Error.Render("error:") + " " + msg
}

// Status formats a report line such as "  ok   git found".
func (t *Theme) Status(status, msg string) string {
	var style lipgloss.Style
	switch status {
	case StatusOK:
		style = t.Success
	case StatusMiss:
		style = t.Error
	default:
		style = t.Warning
	}
	return style.Width(6).Render(status) + msg
}
