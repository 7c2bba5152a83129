package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrCannotOpen wraps every reason a URL is refused before launch.
var ErrCannotOpen = errors.New("cannot open URL")

// CanOpen reports whether rawURL is something the system browser should be
// handed: an absolute http or https URL with a host.
func CanOpen(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrCannotOpen, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: refusing scheme %q (only http/https allowed)", ErrCannotOpen, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrCannotOpen)
	}
	return nil
}

func Open(rawURL string) error {
	if err := CanOpen(rawURL); err != nil {
		return err
	}
	return command(rawURL).Start()
}

func command(rawURL string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL)
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command("xdg-open", rawURL)
	}
}
