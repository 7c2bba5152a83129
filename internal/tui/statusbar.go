package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type statusInfo struct {
	count   int
	page    int
	hasMore bool
	loading bool
	loadErr error
	notice  string
}

func renderStatusBar(s statusInfo, width int) string {
	left := fmt.Sprintf(" %d summaries", s.count)
	if s.count > 0 {
		left += fmt.Sprintf(" · page %d", s.page+1)
		if !s.hasMore {
			left += " · end"
		}
	}
	if s.loading {
		left += " (loading...)"
	}
	if s.loadErr != nil {
		left += " · " + errorStyle.Render("load failed: "+s.loadErr.Error())
	} else if s.notice != "" {
		left += " · " + noticeStyle.Render(s.notice)
	}

	right := " o open  i keywords  x exit  ? help "
	if s.loadErr != nil {
		right = " r retry  i keywords  x exit  ? help "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "
	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
