// Package timefmt renders backend timestamps for display.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Format renders a server timestamp the way a ko-KR locale would,
// e.g. "2025. 3. 14. 오후 3:04:05". Timestamps without a zone suffix are
// treated as UTC. Empty input gives "", unparsable input is returned as is.
func Format(raw string, loc *time.Location) string {
	if raw == "" {
		return ""
	}
	s := raw
	if !strings.HasSuffix(s, "Z") {
		s = strings.Replace(s, " ", "T", 1) + "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return raw
	}
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)

	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), meridiem, h, t.Minute(), t.Second())
}
