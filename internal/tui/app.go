package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/summaries/internal/auth"
	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/matheuskafuri/summaries/internal/browser"
	"github.com/matheuskafuri/summaries/internal/cache"
	"github.com/matheuskafuri/summaries/internal/logctx"
	"github.com/matheuskafuri/summaries/internal/pager"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

// API is the part of the backend the screens use.
type API interface {
	ListSummaries(ctx context.Context, token string, skip, limit int) ([]backend.Summary, error)
	SubmitKeywords(ctx context.Context, token string, keywords []string) error
}

// SummaryStore keeps a local copy of every page that loads.
type SummaryStore interface {
	UpsertSummaries([]cache.Summary) error
}

type App struct {
	auth    auth.Authenticator
	api     API
	store   SummaryStore
	openURL func(string) error
	loc     *time.Location
	timeout time.Duration
	log     *slog.Logger

	threshold   float64
	authEnabled bool

	pager     *pager.Pager
	user      auth.User
	authKnown bool
	router    *router

	cursor        int
	focus         focusPane
	previewScroll int

	width  int
	height int

	// Sub-components
	spinner       spinner.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	keywordInput  textinput.Model

	// State
	signingIn      bool
	savingKeywords bool
	showHelp       bool
	alert          string
	notice         string
	err            error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Auth        auth.Authenticator
	API         API
	Store       SummaryStore
	OpenURL     func(string) error
	Location    *time.Location
	Timeout     time.Duration
	Threshold   float64
	AuthEnabled bool
	Logger      *slog.Logger
}

func NewApp(opts RunOpts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = promptStyle.Render("email    ")
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = promptStyle.Render("password ")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	kw := textinput.New()
	kw.Placeholder = "e.g. semiconductors, climate, AI"
	kw.Prompt = promptStyle.Render("> ")
	kw.CharLimit = 200

	a := &App{
		auth:          opts.Auth,
		api:           opts.API,
		store:         opts.Store,
		openURL:       opts.OpenURL,
		loc:           opts.Location,
		timeout:       opts.Timeout,
		log:           opts.Logger,
		threshold:     opts.Threshold,
		authEnabled:   opts.AuthEnabled,
		pager:         pager.New(),
		router:        newRouter(routeSignIn),
		spinner:       sp,
		emailInput:    email,
		passwordInput: password,
		keywordInput:  kw,
	}
	if a.openURL == nil {
		a.openURL = browser.Open
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.timeout <= 0 {
		a.timeout = 30 * time.Second
	}
	if a.threshold <= 0 {
		a.threshold = 0.5
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, textinput.Blink)
}

func (a *App) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(logctx.Into(context.Background(), a.log), a.timeout)
}

// fetchCmd captures the user and request into the closure; the result is
// matched back to its generation in Update.
func (a *App) fetchCmd(req pager.Request) tea.Cmd {
	user := a.user
	api := a.api
	newCtx := a.ctx
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()

		token, err := user.Token(ctx)
		if err != nil {
			return pageLoadedMsg{req: req, err: fmt.Errorf("getting token: %w", err)}
		}
		items, err := api.ListSummaries(ctx, token, req.Skip(), req.Limit())
		return pageLoadedMsg{req: req, items: items, err: err}
	}
}

func (a *App) persistCmd(items []backend.Summary) tea.Cmd {
	if a.store == nil || len(items) == 0 {
		return nil
	}
	store := a.store
	lg := a.log
	uid := a.pager.UserID()
	now := time.Now()
	rows := make([]cache.Summary, len(items))
	for i, it := range items {
		rows[i] = cache.Summary{
			UserID:    uid,
			ID:        string(it.ID),
			Title:     it.Title,
			Summary:   it.Summary,
			URL:       it.URL,
			CreatedAt: it.CreatedAt,
			FetchedAt: now,
		}
	}
	return func() tea.Msg {
		if err := store.UpsertSummaries(rows); err != nil {
			lg.Warn("cache_summaries_failed", slog.String("err", err.Error()))
		}
		return nil
	}
}

func (a *App) signInCmd(email, password string) tea.Cmd {
	authn := a.auth
	newCtx := a.ctx
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		return signInDoneMsg{err: authn.SignIn(ctx, email, password)}
	}
}

func (a *App) signOutCmd() tea.Cmd {
	authn := a.auth
	return func() tea.Msg {
		if err := authn.SignOut(); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) submitKeywordsCmd(keywords []string) tea.Cmd {
	user := a.user
	api := a.api
	newCtx := a.ctx
	return func() tea.Msg {
		if user == nil {
			return keywordsSavedMsg{err: auth.ErrNotSignedIn}
		}
		ctx, cancel := newCtx()
		defer cancel()
		token, err := user.Token(ctx)
		if err != nil {
			return keywordsSavedMsg{err: err}
		}
		return keywordsSavedMsg{err: api.SubmitKeywords(ctx, token, keywords)}
	}
}

func (a *App) openLinkCmd(url string) tea.Cmd {
	if err := browser.CanOpen(url); err != nil {
		a.log.Info("link_rejected", slog.String("url", url), slog.String("err", err.Error()))
		a.alert = "Cannot open this URL: " + url
		return nil
	}
	open := a.openURL
	return func() tea.Msg {
		if err := open(url); err != nil {
			return linkFailedMsg{url: url, err: err}
		}
		return nil
	}
}

// maybeLoadMore requests the next page once the cursor gets close enough to
// the end of the list. The pager refuses while a fetch is in flight or when
// the last page was short.
func (a *App) maybeLoadMore() tea.Cmd {
	if a.router.current() != routeSummaries {
		return nil
	}
	if !nearEnd(len(a.pager.Items()), a.cursor, a.listRows(), a.threshold) {
		return nil
	}
	req, err := a.pager.LoadMore()
	if err != nil {
		return nil
	}
	return tea.Batch(a.fetchCmd(req), a.spinner.Tick)
}

func (a *App) busy() bool {
	return !a.authKnown || a.pager.Loading() || a.signingIn || a.savingKeywords
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.maybeLoadMore()

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case userChangedMsg:
		return a.handleUserChanged(msg.user)

	case pageLoadedMsg:
		return a.handlePageLoaded(msg)

	case signInDoneMsg:
		a.signingIn = false
		if msg.err != nil {
			a.err = msg.err
		}
		return a, nil

	case keywordsSavedMsg:
		a.savingKeywords = false
		if msg.err != nil {
			a.log.Error("submit_keywords_failed", slog.String("err", msg.err.Error()))
			a.err = msg.err
			return a, nil
		}
		a.keywordInput.Reset()
		a.keywordInput.Blur()
		a.notice = "Keywords saved."
		if a.router.current() == routeKeyword {
			a.router.back()
		}
		return a, nil

	case linkFailedMsg:
		a.log.Warn("open_link_failed", slog.String("url", msg.url), slog.String("err", msg.err.Error()))
		a.alert = "Cannot open this URL: " + msg.url
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, a.updateInputs(msg)
}

func (a *App) handleUserChanged(u auth.User) (tea.Model, tea.Cmd) {
	a.authKnown = true
	a.user = u

	if u == nil {
		a.pager.SetUser("", false)
		a.cursor = 0
		a.previewScroll = 0
		a.signingIn = false
		a.router.reset(routeSignIn)
		a.emailInput.Focus()
		a.passwordInput.Blur()
		a.passwordInput.SetValue("")
		return a, textinput.Blink
	}

	if a.router.current() == routeSignIn {
		a.router.reset(routeSummaries)
		a.emailInput.Blur()
		a.passwordInput.Blur()
		a.passwordInput.SetValue("")
	}

	req, ok := a.pager.SetUser(u.ID(), true)
	if !ok {
		return a, nil
	}
	a.log.Info("identity_changed", slog.String("uid", u.ID()), slog.Uint64("generation", req.Generation))
	a.cursor = 0
	a.previewScroll = 0
	return a, tea.Batch(a.fetchCmd(req), a.spinner.Tick)
}

func (a *App) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	// An expired session signs the user out before the fetch reports back,
	// so the result is usually stale by now. Keep the reason for the
	// sign-in screen either way.
	if errors.Is(msg.err, auth.ErrSessionExpired) {
		a.err = msg.err
	}

	res := a.pager.Complete(msg.req, msg.items, msg.err)
	switch res.Outcome {
	case pager.Stale:
		a.log.Debug("stale_page_dropped",
			slog.Uint64("generation", msg.req.Generation),
			slog.Int("page", msg.req.Page),
		)
		return a, nil
	case pager.Failed:
		a.log.Error("fetch_summaries_failed",
			slog.String("op", "tui.fetch"),
			slog.Int("page", msg.req.Page),
			slog.String("err", msg.err.Error()),
		)
		return a, nil
	}

	if n := len(a.pager.Items()); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
	return a, tea.Batch(a.persistCmd(msg.items), a.maybeLoadMore())
}

func (a *App) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.emailInput, cmd = a.emailInput.Update(msg)
	cmds = append(cmds, cmd)
	a.passwordInput, cmd = a.passwordInput.Update(msg)
	cmds = append(cmds, cmd)
	a.keywordInput, cmd = a.keywordInput.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.alert != "" {
		a.alert = ""
		return a, nil
	}
	if a.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			a.showHelp = false
		}
		return a, nil
	}
	if !a.authKnown {
		return a, nil
	}

	switch a.router.current() {
	case routeSignIn:
		return a.handleSignInKey(msg)
	case routeKeyword:
		return a.handleKeywordKey(msg)
	}
	return a.handleSummariesKey(msg)
}

func (a *App) handleSummariesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.pager.Items()

	switch msg.String() {
	case "x", "q":
		return a, tea.Quit
	case "i":
		a.notice = ""
		a.router.push(routeKeyword)
		a.keywordInput.Focus()
		return a, textinput.Blink
	case "esc", "backspace", "left", "h":
		a.router.back()
		return a, nil
	case "j", "down":
		if a.focus == focusPreview {
			a.previewScroll++
			return a, nil
		}
		if a.cursor < len(items)-1 {
			a.cursor++
			a.previewScroll = 0
		}
		return a, a.maybeLoadMore()
	case "k", "up":
		if a.focus == focusPreview {
			if a.previewScroll > 0 {
				a.previewScroll--
			}
			return a, nil
		}
		if a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		}
		return a, nil
	case "pgdown", "ctrl+d":
		a.cursor = min(a.cursor+a.listRows(), max(0, len(items)-1))
		a.previewScroll = 0
		return a, a.maybeLoadMore()
	case "pgup", "ctrl+u":
		a.cursor = max(0, a.cursor-a.listRows())
		a.previewScroll = 0
		return a, nil
	case "G", "end":
		a.cursor = max(0, len(items)-1)
		a.previewScroll = 0
		return a, a.maybeLoadMore()
	case "g", "home":
		a.cursor = 0
		a.previewScroll = 0
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if a.cursor < len(items) {
			return a, a.openLinkCmd(items[a.cursor].URL)
		}
		return a, nil
	case "r":
		req, err := a.pager.Retry()
		if err != nil {
			return a, nil
		}
		return a, tea.Batch(a.fetchCmd(req), a.spinner.Tick)
	case "L":
		return a, a.signOutCmd()
	case "?":
		a.showHelp = true
		return a, nil
	}
	return a, nil
}

func (a *App) handleKeywordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.savingKeywords {
			return a, nil
		}
		a.keywordInput.Blur()
		a.router.back()
		return a, nil
	case "enter":
		if a.savingKeywords {
			return a, nil
		}
		keywords := parseKeywords(a.keywordInput.Value())
		if len(keywords) == 0 {
			a.err = errors.New("enter at least one keyword")
			return a, nil
		}
		a.savingKeywords = true
		return a, tea.Batch(a.submitKeywordsCmd(keywords), a.spinner.Tick)
	}

	var cmd tea.Cmd
	a.keywordInput, cmd = a.keywordInput.Update(msg)
	return a, cmd
}

func (a *App) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.signingIn {
		return a, nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		a.toggleSignInFocus()
		return a, textinput.Blink
	case "enter":
		if a.emailInput.Focused() && a.passwordInput.Value() == "" {
			a.toggleSignInFocus()
			return a, textinput.Blink
		}
		if !a.authEnabled {
			a.err = auth.ErrNotConfigured
			return a, nil
		}
		a.signingIn = true
		return a, tea.Batch(a.signInCmd(a.emailInput.Value(), a.passwordInput.Value()), a.spinner.Tick)
	}

	var cmd tea.Cmd
	if a.emailInput.Focused() {
		a.emailInput, cmd = a.emailInput.Update(msg)
	} else {
		a.passwordInput, cmd = a.passwordInput.Update(msg)
	}
	return a, cmd
}

func (a *App) toggleSignInFocus() {
	if a.emailInput.Focused() {
		a.emailInput.Blur()
		a.passwordInput.Focus()
	} else {
		a.passwordInput.Blur()
		a.emailInput.Focus()
	}
}

// parseKeywords splits on commas and drops blanks and duplicates.
func parseKeywords(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	return out
}

// contentHeight is the inner height of the list and preview panes.
func (a *App) contentHeight() int {
	// header + status + pane borders
	h := a.height - 1 - 1 - 2
	if h < 3 {
		h = 3
	}
	return h
}

func (a *App) listRows() int {
	return visibleRows(a.contentHeight() - 1)
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  summaries")
	}

	var body string
	switch {
	case !a.authKnown:
		body = lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center,
			a.spinner.View()+" Checking session...")
	case a.router.current() == routeSignIn:
		body = a.renderSignIn()
	case a.router.current() == routeKeyword:
		body = a.renderKeyword()
	default:
		body = a.renderSummaries()
	}

	if a.showHelp {
		body = a.renderHelp()
	}
	if a.alert != "" {
		body = a.renderAlert()
	}
	return body
}

func (a *App) renderHeader() string {
	left := headerStyle.Render(a.router.options().title)
	right := ""
	if a.user != nil {
		right = headerUserStyle.Render(a.user.Email() + " ")
	}
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + fmt.Sprintf("%*s", gap, "") + right
}

func (a *App) renderSummaries() string {
	contentHeight := a.contentHeight()
	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1 // gap

	items := a.pager.Items()

	// List pane
	innerListW := listWidth - 4 // border + padding
	listContent := renderList(items, a.cursor, contentHeight, innerListW, a.pager.Loading(), a.loc)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	// Preview pane
	var selected *backend.Summary
	if a.cursor < len(items) {
		selected = &items[a.cursor]
	}
	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(selected, innerPreviewW, contentHeight, a.previewScroll, a.loc)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(statusInfo{
		count:   len(items),
		page:    a.pager.Page(),
		hasMore: a.pager.HasMore(),
		loading: a.pager.Loading(),
		loadErr: a.pager.Err(),
		notice:  a.notice,
	}, a.width)
	if a.pager.Loading() {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), content, status)
}

func (a *App) renderAlert() string {
	box := alertStyle.Render(a.alert + "\n\n" + helpDimStyle.Render("press any key"))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("summaries")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓      Move through summaries\n" +
		"  pgup/pgdown   Page through summaries\n" +
		"  g/G           First / last summary\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open article link in browser\n" +
		"  r             Retry a failed load\n" +
		"  i             Enter keywords\n" +
		"  L             Sign out\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  x, q          Exit"

	card := cardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// subscribe forwards identity changes to send until the returned func is
// called.
func subscribe(p auth.Provider, send func(tea.Msg)) func() {
	return p.Subscribe(func(u auth.User) {
		send(userChangedMsg{user: u})
	})
}

// Run starts the TUI and keeps it subscribed to identity changes until it
// exits.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	unsubscribe := subscribe(opts.Auth, p.Send)
	defer unsubscribe()

	_, err := p.Run()
	return err
}
