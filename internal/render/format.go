// Package render turns conversation text into display form. Content is
// plain text: a blank line separates paragraphs and a single newline breaks
// a line. Nothing else is interpreted.
package render

import (
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Paragraphs escapes content for HTML and splits it into paragraphs of lines.
// Escaping happens before splitting so answer text can never inject markup.
func Paragraphs(content string) [][]string {
	return paragraphs(content, html.EscapeString)
}

// HTML renders content as <p> blocks with <br> line breaks.
func HTML(content string) string {
	var b strings.Builder
	for _, para := range Paragraphs(content) {
		b.WriteString("<p>")
		b.WriteString(strings.Join(para, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// Terminal renders content for a terminal of the given width. Escape
// sequences and control characters are removed instead of HTML-escaped;
// paragraphs are separated by one blank line and long lines are
// word-wrapped.
func Terminal(content string, width int) string {
	paras := paragraphs(content, terminalSafe)
	out := make([]string, 0, len(paras))
	for _, para := range paras {
		lines := make([]string, 0, len(para))
		for _, line := range para {
			if width > 0 {
				line = ansi.Wordwrap(line, width, "")
			}
			lines = append(lines, line)
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n\n")
}

// paragraphs escapes first, then splits. escape must keep '\n'.
func paragraphs(content string, escape func(string) string) [][]string {
	content = escape(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return nil
	}
	raw := strings.Split(content, "\n\n")
	paras := make([][]string, 0, len(raw))
	for _, p := range raw {
		paras = append(paras, strings.Split(p, "\n"))
	}
	return paras
}

// terminalSafe drops escape sequences and every control rune except newline
// and tab, so a carriage return or backspace cannot rewrite earlier output.
func terminalSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, ansi.Strip(s))
}
