package tui

import (
	"fmt"
	"strings"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/render"
)

const barWidth = 30

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m model) header() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Car Manual Assistant"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(m.selection.Label()))
	if m.selection.Stale {
		b.WriteString(faintStyle.Render(" (not in list)"))
	}
	b.WriteString("\n")
	b.WriteString(renderManuals(m.docs, m.selection))
	return b.String()
}

func (m model) footer() string {
	var lines []string
	if line := renderUpload(m.upload); line != "" {
		lines = append(lines, line)
	}
	if m.note != nil {
		lines = append(lines, renderNotification(*m.note))
	}
	if m.info != "" {
		lines = append(lines, faintStyle.Render(m.info))
	}
	if m.confirmDelete != "" {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Delete %q? [y/N]", m.confirmDelete)))
	} else {
		lines = append(lines, m.input.View())
	}
	lines = append(lines, faintStyle.Render("Enter to send, /help for commands, Esc to quit"))
	return strings.Join(lines, "\n")
}

func renderManuals(docs []models.Document, sel models.Selection) string {
	if len(docs) == 0 {
		return faintStyle.Render("No manuals uploaded yet")
	}
	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		item := fmt.Sprintf("%d. %s", i+1, d.Name)
		if sel.Set && sel.Name == d.Name {
			item = selectedStyle.Render(item)
		}
		parts = append(parts, item)
	}
	return "Manuals: " + strings.Join(parts, "  ")
}

func renderUpload(u models.UploadSnapshot) string {
	if u.Status == models.UploadIdle || u.Status == "" {
		return ""
	}
	filled := u.Progress * barWidth / 100
	bar := barFull.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", barWidth-filled))
	status := u.StatusText()
	switch u.Status {
	case models.UploadSucceeded:
		status = successStyle.Render(status)
	case models.UploadFailed:
		status = errorStyle.Render(status)
	}
	return fmt.Sprintf("%s %3d%% %s %s", bar, u.Progress, status, faintStyle.Render(u.FileName))
}

func renderNotification(n models.Notification) string {
	if n.Severity == models.SeverityError {
		return errorStyle.Render("✗ " + n.Message)
	}
	return successStyle.Render("✓ " + n.Message)
}

// renderConversation draws the welcome block when there is nothing to show,
// otherwise every entry in order, with spin standing in for pending answers.
func renderConversation(entries []models.Entry, welcome models.WelcomeMessage, width int, spin string) string {
	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString(titleStyle.Render(welcome.Title))
		b.WriteString("\n\n")
		b.WriteString(render.Terminal(welcome.Body, width))
		b.WriteString("\n\nTry asking:\n")
		for i, q := range welcome.Examples {
			fmt.Fprintf(&b, "  /example %d  %s\n", i+1, q)
		}
		return b.String()
	}

	for _, e := range entries {
		if e.IsPending() {
			b.WriteString(assistantStyle.Render("Assistant:"))
			b.WriteString(" ")
			b.WriteString(spin)
			b.WriteString(faintStyle.Render("thinking"))
			b.WriteString("\n\n")
			continue
		}
		t := e.Turn
		if t.Role == models.RoleUser {
			b.WriteString(userStyle.Render("You:"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant:"))
		}
		b.WriteString("\n")
		text := render.Terminal(t.Content, width)
		if t.IsError {
			text = errorStyle.Render(text)
		}
		b.WriteString(text)
		b.WriteString("\n")
		if t.Source != "" {
			b.WriteString(faintStyle.Render("Source: " + t.Source))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
