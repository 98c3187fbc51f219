// Package output writes text in kiln's palette to a terminal or a plain stream.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorProfile returns Ascii when NO_COLOR is set and the profile the environment supports otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// Printer paints strings with palette colors. A nil writer selects stderr.
type Printer struct {
	out *termenv.Output
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stderr
	}
	return &Printer{out: termenv.NewOutput(w, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true))}
}

// Paint returns s in color c, or s unchanged under the Ascii profile.
func (p *Printer) Paint(s string, c lipgloss.Color) string {
	return p.out.String(s).Foreground(p.out.Color(string(c))).String()
}

// Bold returns s in bold color c.
func (p *Printer) Bold(s string, c lipgloss.Color) string {
	return p.out.String(s).Foreground(p.out.Color(string(c))).Bold().String()
}

// Println writes the concatenation of parts followed by a newline.
func (p *Printer) Println(parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(p.out, part); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.out, "\n")
	return err
}

// Printf formats like fmt.Printf.
func (p *Printer) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(p.out, format, args...)
	return err
}

// Writer returns the underlying stream for use with other formatters.
func (p *Printer) Writer() io.Writer {
	return p.out
}
