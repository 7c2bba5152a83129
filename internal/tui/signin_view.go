package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/summaries/internal/auth"
)

func (a *App) renderSignIn() string {
	var lines []string
	lines = append(lines, formTitleStyle.Render("Sign in to see your news summaries"), "")

	if !a.authEnabled {
		lines = append(lines,
			errorStyle.Render("Sign-in is not configured."),
			helpDimStyle.Render("Set firebase.api_key in the config file or SUMMARIES_FIREBASE_API_KEY."),
		)
	} else {
		lines = append(lines, a.emailInput.View(), a.passwordInput.View(), "")
		switch {
		case a.signingIn:
			lines = append(lines, a.spinner.View()+" Signing in...")
		case a.err != nil:
			lines = append(lines, errorStyle.Render(signInErrorText(a.err)))
		default:
			lines = append(lines, helpDimStyle.Render("enter to continue"))
		}
	}

	card := cardStyle.Render(strings.Join(lines, "\n"))
	body := lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
	return lipgloss.JoinVertical(lipgloss.Left, body, renderBottomBar("tab switch field  enter sign in  ctrl+c exit", a.width))
}

func signInErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Wrong email or password."
	case errors.Is(err, auth.ErrSessionExpired):
		return "Your session expired. Sign in again."
	case errors.Is(err, auth.ErrNotConfigured):
		return "Sign-in is not configured."
	default:
		return "Sign-in failed: " + err.Error()
	}
}
