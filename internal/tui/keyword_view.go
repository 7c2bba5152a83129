package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderKeyword() string {
	lines := []string{
		formTitleStyle.Render("Which topics should your summaries follow?"),
		helpDimStyle.Render("Separate keywords with commas."),
		"",
		a.keywordInput.View(),
		"",
	}
	switch {
	case a.savingKeywords:
		lines = append(lines, a.spinner.View()+" Saving...")
	case a.err != nil:
		lines = append(lines, errorStyle.Render(a.err.Error()))
	}

	card := cardStyle.Render(strings.Join(lines, "\n"))
	body := lipgloss.Place(a.width, a.height-2, lipgloss.Center, lipgloss.Center, card)
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		body,
		renderBottomBar("enter save  esc back to summaries", a.width),
	)
}
