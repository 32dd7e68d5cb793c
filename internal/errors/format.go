package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// sgr holds the ANSI select-graphic-rendition sequences used by Format.
var sgr = struct {
	reset, bold, red, yellow, cyan, gray string
}{
	reset:  "\033[0m",
	bold:   "\033[1m",
	red:    "\033[31m",
	yellow: "\033[33m",
	cyan:   "\033[36m",
	gray:   "\033[90m",
}

var colorEnabled = true

// DisableColors turns off ANSI sequences in Format.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI sequences in Format back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + sgr.reset
}

// detail returns the error's own detail or the registered one.
func (e *Error) detail() string {
	if e.Detail != "" {
		return e.Detail
	}
	if t, ok := registry[e.Code]; ok {
		return t.Detail
	}
	return ""
}

// Format renders the error for a terminal: the headline, where it
// happened, the explanation, the cause and a hint.
func (e *Error) Format() string {
	var b strings.Builder

	headline := e.Message
	if e.Code != "" {
		headline = e.Code + ": " + e.Message
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", paint("ERROR", sgr.bold, sgr.red), paint(headline, sgr.bold))

	if len(e.Path) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", paint("in", sgr.gray), paint(e.PathString(), sgr.cyan))
	}
	if e.Location != nil {
		fmt.Fprintf(&b, "  %s %s\n", paint("at", sgr.gray), paint(e.Location.String(), sgr.cyan))
		writeExcerpt(&b, e.Location, e.Context)
	}
	if len(e.Path) > 0 || e.Location != nil {
		b.WriteString("\n")
	}

	if d := e.detail(); d != "" {
		for _, line := range wrapText(d, 70) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Cause:", sgr.yellow), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Hint:", sgr.cyan), e.Suggestion)
	}
	return b.String()
}

// writeExcerpt prints the source lines around loc, marking its line.
func writeExcerpt(w io.Writer, loc *Location, lines []string) {
	if len(lines) == 0 {
		return
	}
	first := loc.Line - len(lines)/2
	fmt.Fprintln(w)
	for i, text := range lines {
		n := first + i
		marker := "  "
		if n == loc.Line {
			marker = paint("> ", sgr.red)
		}
		fmt.Fprintf(w, "  %s%4d %s %s\n", marker, n, paint("|", sgr.gray), text)
		if n == loc.Line && loc.Column > 0 {
			fmt.Fprintf(w, "         %s %s%s\n", paint("|", sgr.gray), strings.Repeat(" ", loc.Column-1), paint("^", sgr.red))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its location
// and component path when known.
func (e *Error) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if len(e.Path) > 0 {
		parts = append(parts, e.PathString())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Path       []string  `json:"path,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Path:       e.Path,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes, splitting on
// spaces. Longer words get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// PrintError writes err to stderr, using Format for structured errors.
func PrintError(err error) {
	var fe *Error
	if stderrors.As(err, &fe) {
		fmt.Fprint(os.Stderr, fe.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %s\n\n", paint("ERROR", sgr.bold, sgr.red), err)
}
