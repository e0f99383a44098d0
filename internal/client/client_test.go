package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-library-console/internal/config"
)

// newClient — клиент, направленный на тестовый сервер.
func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(config.CentralConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

// deadClient — клиент, направленный на закрытый сервер (транспортный отказ).
func deadClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	return New(config.CentralConfig{BaseURL: srv.URL, Timeout: time.Second})
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"demo-alice","user":{"external_id":"alice","name":"Alice","home_branch":"CTR"}}`))
	}))
	defer srv.Close()

	res, err := newClient(t, srv).Login(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "demo-alice", res.AccessToken)
	require.Equal(t, "Alice", res.User.Name)
	require.Equal(t, "CTR", res.User.HomeBranch)
}

// Пустой ID отклоняется до обращения к сети.
func TestLogin_EmptyID_NoNetworkCall(t *testing.T) {
	t.Parallel()

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Login(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyUserID)
	require.Zero(t, atomic.LoadInt64(&hits))
}

func TestLogin_UnknownID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"We couldn't find that library ID. Ask a librarian to register you first."}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Login(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Contains(t, UserMessage(err), "couldn't find that library ID")
}

func TestLogin_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := deadClient(t).Login(context.Background(), "alice")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Empty(t, UserMessage(err))
}

func TestSearchCatalog_QueryParam(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/global/books", r.URL.Path)
		gotQuery.Store(r.URL.RawQuery)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"isbn":"978-0","title":"The Hobbit","author":"Tolkien","branches":[{"branch_code":"CTR","total_copies":2,"available_copies":1}]}]`))
	}))
	defer srv.Close()

	c := newClient(t, srv)

	books, err := c.SearchCatalog(context.Background(), "tolkien")
	require.NoError(t, err)
	require.Equal(t, "query=tolkien", gotQuery.Load())
	require.Len(t, books, 1)
	require.Equal(t, "The Hobbit", books[0].Title)
	require.Len(t, books[0].Branches, 1)
	require.Equal(t, 1, books[0].Branches[0].AvailableCopies)

	// Пустой запрос не передаёт параметр вовсе (= весь каталог).
	_, err = c.SearchCatalog(context.Background(), "  ")
	require.NoError(t, err)
	require.Equal(t, "", gotQuery.Load())
}

func TestSearchCatalog_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).SearchCatalog(context.Background(), "")
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestBorrow_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/borrow", r.URL.Path)
		require.Equal(t, "Bearer demo-alice", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"loan_id":7,"branch":"CTR","due_at":"2024-06-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	res, err := newClient(t, srv).Borrow(context.Background(), "demo-alice", "978-0", "CTR")
	require.NoError(t, err)
	require.Equal(t, int64(7), res.LoanID)
	require.Equal(t, "CTR", res.Branch)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), res.DueAt)
}

func TestBorrow_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid or expired token"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Borrow(context.Background(), "stale", "978-0", "CTR")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestBorrow_Conflict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"No copies available"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Borrow(context.Background(), "demo-alice", "978-0", "CTR")
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "No copies available", UserMessage(err))
}

func TestListBranches_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/branches", r.URL.Path)
		w.Write([]byte(`[{"code":"CTR","name":"Central","base_url":"http://ctr.local","is_active":true},
			{"code":"WST","name":"West","base_url":"http://wst.local","is_active":false}]`))
	}))
	defer srv.Close()

	branches, err := newClient(t, srv).ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 2)
	require.True(t, branches[0].IsActive)
	require.False(t, branches[1].IsActive)
}

func TestListUserLoans_PathEscaped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/user_loans/reader%201", r.URL.EscapedPath())
		w.Write([]byte(`[{"loan_id":1,"branch":"CTR","isbn":"978-0","title":"The Hobbit","status":"BORROWED",
			"borrowed_at":"2024-05-18T00:00:00Z","due_at":"2024-06-01T00:00:00Z","returned_at":null}]`))
	}))
	defer srv.Close()

	loans, err := newClient(t, srv).ListUserLoans(context.Background(), "reader 1")
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.Equal(t, "BORROWED", loans[0].Status)
	require.Nil(t, loans[0].ReturnedAt)
}
