package timefmt

import (
	"testing"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

func TestFormat(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-03-14 06:04:05", "2025. 3. 14. 오후 3:04:05"},
		{"2025-03-14T00:30:00Z", "2025. 3. 14. 오전 9:30:00"},
		{"2025-03-14T15:00:00.123456", "2025. 3. 15. 오전 12:00:00"},
		{"2025-03-14T03:00:00", "2025. 3. 14. 오후 12:00:00"},
		{"", ""},
		{"not a date", "not a date"},
	}
	for _, tt := range tests {
		got := Format(tt.raw, kst)
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatNilLocation(t *testing.T) {
	got := Format("2025-03-14 06:04:05", nil)
	if got != "2025. 3. 14. 오전 6:04:05" {
		t.Errorf("expected UTC rendering, got %q", got)
	}
}
