// Package pager holds the pagination state of the summary list: which page
// was loaded last, whether more exist, and whether a fetch is in flight.
//
// The pager never performs I/O. Begin hands out a Request describing the
// fetch to run; the caller runs it and reports back through Complete.
// Every request is stamped with the identity generation it was issued
// under, so results that arrive after the user changed are dropped.
package pager

import (
	"errors"

	"github.com/matheuskafuri/summaries/internal/backend"
)

// PageSize is the number of summaries requested per page.
const PageSize = 10

var (
	// ErrNoUser is returned when nobody is signed in.
	ErrNoUser = errors.New("pager: no signed-in user")
	// ErrInFlight is returned while another fetch is outstanding.
	ErrInFlight = errors.New("pager: fetch already in flight")
	// ErrNoMore is returned once a short page has been seen.
	ErrNoMore = errors.New("pager: no more pages")
	// ErrNeedsRetry is returned by LoadMore after a failure; only Retry
	// re-issues the failed request.
	ErrNeedsRetry = errors.New("pager: last fetch failed, retry it first")
)

// Request describes one page fetch.
type Request struct {
	Generation uint64
	Page       int
	Append     bool
}

func (r Request) Skip() int  { return r.Page * PageSize }
func (r Request) Limit() int { return PageSize }

// Outcome reports what Complete did with a result.
type Outcome int

const (
	// Applied means the items were stored.
	Applied Outcome = iota
	// Failed means the fetch errored; list state is unchanged.
	Failed
	// Stale means the result belonged to a previous identity and was dropped.
	Stale
)

// Result is what Complete reports back to the caller.
type Result struct {
	Outcome Outcome
	Added   int
	Err     error
}

// Pager tracks the loaded summaries and the fetch state of one user at a
// time. It is not safe for concurrent use; the TUI drives it from Update.
type Pager struct {
	userID     string
	signedIn   bool
	generation uint64

	items   []backend.Summary
	page    int
	hasMore bool
	loading bool

	lastErr    error
	lastFailed *Request
}

// New returns a pager with no user.
func New() *Pager {
	return &Pager{hasMore: true}
}

// SetUser records the current identity. A sign-in or an identity change
// resets the list and returns the page-0 request to run; the same identity
// again returns ok=false. Signing out clears the list.
func (p *Pager) SetUser(userID string, signedIn bool) (Request, bool) {
	if !signedIn {
		if p.signedIn {
			p.generation++
			p.reset()
		}
		p.signedIn = false
		p.userID = ""
		return Request{}, false
	}
	if p.signedIn && p.userID == userID {
		return Request{}, false
	}

	p.generation++
	p.signedIn = true
	p.userID = userID
	p.reset()
	req, err := p.Begin(0, false)
	return req, err == nil
}

func (p *Pager) reset() {
	p.items = nil
	p.page = 0
	p.hasMore = true
	p.loading = false
	p.lastErr = nil
	p.lastFailed = nil
}

// Begin claims the in-flight slot for a fetch of page.
func (p *Pager) Begin(page int, appendItems bool) (Request, error) {
	switch {
	case !p.signedIn:
		return Request{}, ErrNoUser
	case p.loading:
		return Request{}, ErrInFlight
	case !p.hasMore:
		return Request{}, ErrNoMore
	}
	p.loading = true
	return Request{Generation: p.generation, Page: page, Append: appendItems}, nil
}

// LoadMore begins a fetch of the page after the last loaded one. Before the
// first page has loaded it requests page 0 instead. After a failure it
// refuses with ErrNeedsRetry until Retry succeeds.
func (p *Pager) LoadMore() (Request, error) {
	if p.signedIn && p.lastFailed != nil {
		return Request{}, ErrNeedsRetry
	}
	if len(p.items) == 0 {
		return p.Begin(0, false)
	}
	return p.Begin(p.page+1, true)
}

// Retry re-issues the request that failed last.
func (p *Pager) Retry() (Request, error) {
	if p.lastFailed == nil {
		return Request{}, errors.New("pager: nothing to retry")
	}
	failed := *p.lastFailed
	req, err := p.Begin(failed.Page, failed.Append)
	if err == nil {
		p.lastErr = nil
		p.lastFailed = nil
	}
	return req, err
}

// Complete applies the outcome of req.
func (p *Pager) Complete(req Request, items []backend.Summary, err error) Result {
	if req.Generation != p.generation {
		return Result{Outcome: Stale, Err: err}
	}
	p.loading = false

	if err != nil {
		p.lastErr = err
		failed := req
		p.lastFailed = &failed
		return Result{Outcome: Failed, Err: err}
	}

	if req.Append {
		p.items = append(p.items, items...)
	} else {
		p.items = append([]backend.Summary(nil), items...)
	}
	p.hasMore = len(items) == PageSize
	p.page = req.Page
	p.lastErr = nil
	p.lastFailed = nil
	return Result{Outcome: Applied, Added: len(items)}
}

func (p *Pager) Items() []backend.Summary { return p.items }
func (p *Pager) Page() int                { return p.page }
func (p *Pager) HasMore() bool            { return p.hasMore }
func (p *Pager) Loading() bool            { return p.loading }
func (p *Pager) SignedIn() bool           { return p.signedIn }
func (p *Pager) UserID() string           { return p.userID }
func (p *Pager) Generation() uint64       { return p.generation }

// Err is the error of the most recent failed fetch, cleared by the next
// successful one.
func (p *Pager) Err() error { return p.lastErr }
