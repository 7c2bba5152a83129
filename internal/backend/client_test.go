package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSummariesRequest(t *testing.T) {
	var gotQuery, gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summaries/paginated", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id": "a1", "title": "First", "summary": "S1", "url": "https://a.example", "created_at": "2025-03-14 06:04:05"},
			{"id": 42, "title": "Second", "summary": "S2", "url": "https://b.example", "created_at": "2025-03-14T07:00:00Z"}
		]`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", 5*time.Second)
	items, err := c.ListSummaries(context.Background(), "tok", 20, 10)
	require.NoError(t, err)

	assert.Equal(t, "limit=10&skip=20", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotReqID)

	require.Len(t, items, 2)
	assert.Equal(t, ID("a1"), items[0].ID)
	assert.Equal(t, ID("42"), items[1].ID)
	assert.Equal(t, "2025-03-14 06:04:05", items[0].CreatedAt)
}

func TestListSummariesNullBody(t *testing.T) {
	for _, body := range []string{"null", "", "[]"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))

		items, err := New(srv.URL, time.Second).ListSummaries(context.Background(), "t", 0, 10)
		srv.Close()

		require.NoError(t, err, "body %q", body)
		assert.NotNil(t, items, "body %q", body)
		assert.Empty(t, items, "body %q", body)
	}
}

func TestListSummariesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListSummaries(context.Background(), "t", 0, 10)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "token expired", se.Body)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestListSummariesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListSummaries(context.Background(), "t", 0, 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestListSummariesMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"not": "a list"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListSummaries(context.Background(), "t", 0, 10)
	assert.Error(t, err)
}

func TestSubmitKeywords(t *testing.T) {
	var got keywordsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/keywords", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).SubmitKeywords(context.Background(), "tok", []string{"go", "rust"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, got.Keywords)
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
		err  bool
	}{
		{`"abc"`, "abc", false},
		{`17`, "17", false},
		{`1.5`, "1.5", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var id ID
		err := json.Unmarshal([]byte(tt.in), &id)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, id)
	}
}
