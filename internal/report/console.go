package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleOpts controls ConsoleSink rendering.
type ConsoleOpts struct {
	// Color enables lipgloss styling. The renderer still downgrades to plain
	// text when the writer is not a terminal.
	Color bool
	// GitHub wraps details in workflow groups and annotates failures.
	GitHub bool
	// Width of section heading bars.
	Width int
}

// ConsoleSink renders records for humans.
type ConsoleSink struct {
	w    io.Writer
	opts ConsoleOpts

	badges  map[Severity]lipgloss.Style
	heading lipgloss.Style
	detail  lipgloss.Style
}

var badgeColors = map[Severity]string{
	SeverityInfo:      "#00C8FF",
	SeveritySkip:      "#C8FFFF",
	SeveritySuccess:   "#00FA00",
	SeverityAttention: "#FFB900",
	SeverityError:     "#FF6432",
	SeverityCritical:  "#FF1E1E",
}

var badgeLabels = map[Severity]string{
	SeverityInfo:      "INFO",
	SeveritySkip:      "SKIP",
	SeveritySuccess:   "PASS",
	SeverityAttention: "WARN",
	SeverityError:     "FAIL",
	SeverityCritical:  "CRIT",
}

// NewConsoleSink creates a sink writing to w.
func NewConsoleSink(w io.Writer, opts ConsoleOpts) *ConsoleSink {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	r := lipgloss.NewRenderer(w)

	badges := make(map[Severity]lipgloss.Style, len(badgeColors))
	for sev, color := range badgeColors {
		badges[sev] = r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}

	return &ConsoleSink{
		w:      w,
		opts:   opts,
		badges: badges,
		heading: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1964AF")).
			Width(opts.Width).
			Align(lipgloss.Center),
		detail: r.NewStyle().Faint(true),
	}
}

// Section implements Reporter.
func (s *ConsoleSink) Section(title string) {
	if s.opts.Color {
		_, _ = fmt.Fprintf(s.w, "\n%s\n\n", s.heading.Render(title))
		return
	}
	_, _ = fmt.Fprintf(s.w, "\n== %s ==\n\n", title)
}

// Entry implements Reporter.
func (s *ConsoleSink) Entry(r Record) {
	head := fmt.Sprintf("%s %s", s.badge(r.Severity), r.Title)

	if s.opts.GitHub {
		_, _ = fmt.Fprintf(s.w, "::group::%s\n", head)
	} else {
		_, _ = fmt.Fprintln(s.w, head)
	}

	if r.Summary != "" {
		_, _ = fmt.Fprintf(s.w, "  %s\n", r.Summary)
	}
	for _, d := range r.Details {
		line := "    " + strings.ReplaceAll(d, "\n", "\n    ")
		if s.opts.Color {
			line = s.detail.Render(line)
		}
		_, _ = fmt.Fprintln(s.w, line)
	}

	if s.opts.GitHub {
		_, _ = fmt.Fprintln(s.w, "::endgroup::")
		if r.Severity == SeverityError || r.Severity == SeverityCritical {
			_, _ = fmt.Fprintf(s.w, "::error title=%s::%s\n", escapeProperty(r.Title), escapeData(r.Summary))
		}
	}
}

func (s *ConsoleSink) badge(sev Severity) string {
	label, ok := badgeLabels[sev]
	if !ok {
		label = strings.ToUpper(string(sev))
	}
	label = "[" + label + "]"
	if !s.opts.Color {
		return label
	}
	return s.badges[sev].Render(label)
}

// escapeData escapes workflow command message data.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// escapeProperty escapes workflow command property values.
func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}
