package browser

import (
	"errors"
	"testing"
)

func TestCanOpen(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com/a?b=c", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		err := CanOpen(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("CanOpen(%q): expected error, got nil", tt.url)
			} else if !errors.Is(err, ErrCannotOpen) {
				t.Errorf("CanOpen(%q): expected ErrCannotOpen, got %v", tt.url, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CanOpen(%q): unexpected error: %v", tt.url, err)
		}
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", ""} {
		if err := Open(u); !errors.Is(err, ErrCannotOpen) {
			t.Errorf("Open(%q): expected ErrCannotOpen, got %v", u, err)
		}
	}
}
