package tui

import (
	"strings"
	"time"

	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/matheuskafuri/summaries/internal/timefmt"
)

// Each row is a title line, a meta line and a blank separator.
const itemHeight = 3

func renderListItem(s backend.Summary, selected bool, width int, loc *time.Location) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(s.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(s.Title, width-4))
	}

	meta := "  " + itemTimeStyle.Render(timefmt.Format(s.CreatedAt, loc))
	if s.URL != "" {
		meta += "  " + itemLinkStyle.Render("Link")
	}

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// visibleRows is how many list rows fit in height.
func visibleRows(height int) int {
	v := height / itemHeight
	if v < 1 {
		v = 1
	}
	return v
}

// nearEnd reports whether the cursor is within threshold×visible rows of the
// last item. An empty list is never near its end.
func nearEnd(total, cursor, visible int, threshold float64) bool {
	if total == 0 {
		return false
	}
	remaining := total - 1 - cursor
	return float64(remaining) < threshold*float64(visible)
}

func scrollWindow(total, cursor, visible int) (start, end int) {
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end = start + visible
	if end > total {
		end = total
		start = end - visible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func renderList(items []backend.Summary, cursor, height, width int, loading bool, loc *time.Location) string {
	if len(items) == 0 {
		if loading {
			return lipglossCenter("Loading...", width, height)
		}
		return lipglossCenter("No summaries yet.", width, height)
	}

	// Keep one row free for the footer.
	rows := visibleRows(height - 1)
	start, end := scrollWindow(len(items), cursor, rows)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(items[i], i == cursor, width, loc))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}
	if loading {
		b.WriteString("\n\n" + footerStyle.Render("  Loading..."))
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
