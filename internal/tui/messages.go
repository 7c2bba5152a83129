package tui

import (
	"github.com/matheuskafuri/summaries/internal/auth"
	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/matheuskafuri/summaries/internal/pager"
)

type userChangedMsg struct {
	user auth.User
}

type pageLoadedMsg struct {
	req   pager.Request
	items []backend.Summary
	err   error
}

type signInDoneMsg struct {
	err error
}

type keywordsSavedMsg struct {
	err error
}

// linkFailedMsg is sent when the browser could not be launched for url.
type linkFailedMsg struct {
	url string
	err error
}

type errMsg struct {
	err error
}
