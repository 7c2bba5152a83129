package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/matheuskafuri/summaries/internal/timefmt"
)

func renderPreview(s *backend.Summary, width, height, scroll int, loc *time.Location) string {
	if s == nil {
		return lipglossCenter("Select a summary", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(s.Title)
	meta := itemTimeStyle.Render(timefmt.Format(s.CreatedAt, loc))

	text := s.Summary
	if text == "" {
		text = "(No summary available)"
	}
	body := previewBodyStyle.Width(contentWidth).Render(wrapText(text, contentWidth))

	parts := []string{title, meta, "", body}
	if s.URL != "" {
		parts = append(parts, previewLinkStyle.Width(contentWidth).Render("Link: "+s.URL+"  (o to open)"))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
