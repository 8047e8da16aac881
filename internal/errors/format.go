package errors

import (
	"fmt"
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBlue  = "\033[34m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format returns a formatted error message for terminal display.
func (e *RenderError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(red(bold("ERROR ")))
	b.WriteString(white(bold(fmt.Sprintf("[%s] ", e.Kind))))
	b.WriteString(white(e.Message))
	b.WriteString("\n\n")

	if e.Location != nil {
		b.WriteString("  ")
		b.WriteString(cyan(e.Location.String()))
		b.WriteString("\n\n")
	}

	// Source frame from the rendering process, indented verbatim.
	if e.Frame != "" {
		for _, line := range strings.Split(strings.TrimRight(e.Frame, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Stack != "" {
		for _, line := range strings.Split(strings.TrimRight(e.Stack, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(gray(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Kind == KindUnreachable {
		b.WriteString("  ")
		b.WriteString(cyan("Target: "))
		b.WriteString(e.Target)
		b.WriteString("\n")
		if e.Detail != "" {
			for _, line := range wrapText(e.Detail, 70) {
				b.WriteString("  ")
				b.WriteString(gray(line))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if e.Kind == KindUnexpectedStatus && e.Body != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Response body:"))
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(e.Body, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(gray(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if hint := e.hint(); hint != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(hint)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *RenderError) FormatCompact() string {
	var b strings.Builder

	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}

	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)

	return b.String()
}

// hint returns an operator-facing suggestion for fixable kinds.
func (e *RenderError) hint() string {
	switch e.Kind {
	case KindNotConfigured:
		return "Check the SSR section of your vuego configuration."
	case KindUnreachable:
		return "Make sure the rendering backend is running and reachable."
	default:
		return ""
	}
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	if re, ok := As(err); ok {
		fmt.Fprint(os.Stderr, re.Format())
	} else {
		fmt.Fprintf(os.Stderr, "\n%sERROR:%s %s\n\n", colorRed+colorBold, colorReset, err.Error())
	}
}
