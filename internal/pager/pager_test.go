package pager

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(prefix string, n int) []backend.Summary {
	out := make([]backend.Summary, n)
	for i := range out {
		out[i] = backend.Summary{ID: backend.ID(fmt.Sprintf("%s-%d", prefix, i)), Title: "t"}
	}
	return out
}

func signedIn(t *testing.T, uid string) (*Pager, Request) {
	t.Helper()
	p := New()
	req, ok := p.SetUser(uid, true)
	require.True(t, ok)
	return p, req
}

func TestBeginRequiresUser(t *testing.T) {
	p := New()
	_, err := p.Begin(0, false)
	assert.ErrorIs(t, err, ErrNoUser)
	assert.False(t, p.Loading())
}

func TestSignInIssuesFirstPage(t *testing.T) {
	p, req := signedIn(t, "a")

	assert.Equal(t, 0, req.Page)
	assert.False(t, req.Append)
	assert.Equal(t, 0, req.Skip())
	assert.Equal(t, 10, req.Limit())
	assert.True(t, p.Loading())
	assert.True(t, p.HasMore())
	assert.Empty(t, p.Items())
}

func TestFullThenShortPage(t *testing.T) {
	p, req := signedIn(t, "a")
	res := p.Complete(req, makeItems("p0", 10), nil)
	assert.Equal(t, Applied, res.Outcome)
	assert.True(t, p.HasMore())

	req, err := p.LoadMore()
	require.NoError(t, err)
	assert.Equal(t, 1, req.Page)
	assert.True(t, req.Append)
	assert.Equal(t, 10, req.Skip())

	res = p.Complete(req, makeItems("p1", 4), nil)
	assert.Equal(t, 4, res.Added)
	assert.Len(t, p.Items(), 14)
	assert.False(t, p.HasMore())
	assert.Equal(t, 1, p.Page())

	_, err = p.LoadMore()
	assert.ErrorIs(t, err, ErrNoMore)
}

func TestTwoFullPages(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("p0", 10), nil)

	req, err := p.LoadMore()
	require.NoError(t, err)
	p.Complete(req, makeItems("p1", 10), nil)

	assert.True(t, p.HasMore())
	assert.Equal(t, 1, p.Page())
	assert.Len(t, p.Items(), 20)
	assert.Equal(t, backend.ID("p0-0"), p.Items()[0].ID)
	assert.Equal(t, backend.ID("p1-9"), p.Items()[19].ID)
}

func TestHasMoreTracksLatestPage(t *testing.T) {
	sizes := []int{10, 10, 3}
	p, req := signedIn(t, "a")
	for i, n := range sizes {
		if i > 0 {
			var err error
			req, err = p.LoadMore()
			require.NoError(t, err)
		}
		p.Complete(req, makeItems(fmt.Sprint(i), n), nil)
		assert.Equal(t, n == PageSize, p.HasMore(), "after page %d", i)
	}
}

func TestLoadMoreWhileInFlight(t *testing.T) {
	p, _ := signedIn(t, "a")

	_, err := p.LoadMore()
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = p.Begin(3, true)
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestFailedFetchLeavesStateUnchanged(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("p0", 10), nil)

	req, err := p.LoadMore()
	require.NoError(t, err)

	before := append([]backend.Summary(nil), p.Items()...)
	boom := errors.New("boom")
	res := p.Complete(req, nil, boom)

	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, before, p.Items())
	assert.Equal(t, 0, p.Page())
	assert.True(t, p.HasMore())
	assert.False(t, p.Loading())
	assert.ErrorIs(t, p.Err(), boom)
}

func TestRetryReissuesFailedRequest(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("p0", 10), nil)

	_, err := p.Retry()
	assert.Error(t, err, "nothing failed yet")

	req, _ = p.LoadMore()
	p.Complete(req, nil, errors.New("boom"))

	retry, err := p.Retry()
	require.NoError(t, err)
	assert.Equal(t, req.Page, retry.Page)
	assert.Equal(t, req.Append, retry.Append)
	assert.Nil(t, p.Err())

	p.Complete(retry, makeItems("p1", 2), nil)
	assert.Len(t, p.Items(), 12)
}

func TestLoadMoreRefusedAfterFailure(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("p0", 10), nil)

	req, err := p.LoadMore()
	require.NoError(t, err)
	p.Complete(req, nil, errors.New("boom"))

	_, err = p.LoadMore()
	assert.ErrorIs(t, err, ErrNeedsRetry)
	assert.False(t, p.Loading())

	retry, err := p.Retry()
	require.NoError(t, err)
	p.Complete(retry, makeItems("p1", 10), nil)

	next, err := p.LoadMore()
	require.NoError(t, err)
	assert.Equal(t, 2, next.Page)
}

func TestIdentityChangeResets(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("a", 10), nil)

	reqB, ok := p.SetUser("b", true)
	require.True(t, ok)
	assert.Equal(t, 0, reqB.Page)
	assert.False(t, reqB.Append)
	assert.Empty(t, p.Items())
	assert.True(t, p.HasMore())
	assert.Equal(t, "b", p.UserID())

	// Exactly one page-0 request: a second notification for b is a no-op.
	_, ok = p.SetUser("b", true)
	assert.False(t, ok)
}

func TestStaleResultDiscarded(t *testing.T) {
	p, reqA := signedIn(t, "a")

	reqB, ok := p.SetUser("b", true)
	require.True(t, ok)
	assert.NotEqual(t, reqA.Generation, reqB.Generation)

	res := p.Complete(reqA, makeItems("a", 10), nil)
	assert.Equal(t, Stale, res.Outcome)
	assert.Empty(t, p.Items())
	assert.True(t, p.Loading(), "b's fetch is still in flight")

	res = p.Complete(reqB, makeItems("b", 3), nil)
	assert.Equal(t, Applied, res.Outcome)
	assert.Len(t, p.Items(), 3)
	assert.Equal(t, backend.ID("b-0"), p.Items()[0].ID)
}

func TestSignOutClears(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("a", 10), nil)
	gen := p.Generation()

	_, ok := p.SetUser("", false)
	assert.False(t, ok)
	assert.False(t, p.SignedIn())
	assert.Empty(t, p.Items())
	assert.Greater(t, p.Generation(), gen)

	_, err := p.LoadMore()
	assert.ErrorIs(t, err, ErrNoUser)

	// Signing back in as the same user starts over.
	_, ok = p.SetUser("a", true)
	assert.True(t, ok)
}

func TestReplaceOnNonAppend(t *testing.T) {
	p, req := signedIn(t, "a")
	p.Complete(req, makeItems("x", 10), nil)

	req, err := p.Begin(0, false)
	require.NoError(t, err)
	p.Complete(req, makeItems("y", 5), nil)

	assert.Len(t, p.Items(), 5)
	assert.Equal(t, backend.ID("y-0"), p.Items()[0].ID)
}
