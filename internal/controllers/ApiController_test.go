package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"followtrack/internal/github"
	"followtrack/internal/models"
	"followtrack/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() (*ApiController, *testutil.MockFollowerService, *testutil.MockCache) {
	svc := testutil.NewMockFollowerService()
	cache := testutil.NewMockCache()
	return NewApiController(&testutil.MockLogger{}, svc, cache), svc, cache
}

func do(handler http.HandlerFunc, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// --- Refresh ---

func TestRefresh_OK(t *testing.T) {
	ac, svc, _ := newTestController()
	svc.Result = &models.RefreshResult{
		RunID:     "run-1",
		AccountID: "octocat",
		Diff: models.DiffResult{
			Added:        []models.FollowerRecord{{Handle: "d"}},
			Removed:      []models.FollowerRecord{},
			CurrentTotal: 4,
		},
		History: []models.DailyCountRecord{{Date: "2026-03-10", Count: 4}},
	}

	rr := do(ac.Refresh, http.MethodPost, "/refresh?u=octocat", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "octocat", resp["username"])
	diff := resp["diff"].(map[string]interface{})
	assert.Equal(t, float64(4), diff["total_current"])
	assert.Len(t, diff["new_followers"], 1)
}

func TestRefresh_PassesBearerToken(t *testing.T) {
	ac, svc, _ := newTestController()

	req := httptest.NewRequest(http.MethodPost, "/refresh?u=octocat", nil)
	req.Header.Set("Authorization", "Bearer ghp_abc")
	rr := httptest.NewRecorder()
	ac.Refresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, svc.RefreshCalls, 1)
	assert.Equal(t, testutil.RefreshCall{AccountID: "octocat", Token: "ghp_abc"}, svc.RefreshCalls[0])
}

func TestRefresh_MissingAccount(t *testing.T) {
	ac, svc, _ := newTestController()

	rr := do(ac.Refresh, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, svc.RefreshCalls)
}

func TestRefresh_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"user not found", github.ErrUserNotFound, http.StatusNotFound},
		{"rate limited", fmt.Errorf("%w, please use a token", github.ErrRateLimited), http.StatusTooManyRequests},
		{"storage", errors.New("storage: save snapshot: disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, svc, _ := newTestController()
			svc.RefreshErr = tt.err

			rr := do(ac.Refresh, http.MethodPost, "/refresh?u=octocat", "")
			assert.Equal(t, tt.status, rr.Code)
			assert.NotContains(t, rr.Body.String(), "disk full")
		})
	}
}

func TestRefresh_InvalidatesCache(t *testing.T) {
	ac, _, cache := newTestController()
	cache.Set("snapshot:octocat", []byte(`{}`))
	cache.Set("history:octocat", []byte(`[]`))
	cache.Set("accounts", []byte(`[]`))
	cache.Set("history:hubot", []byte(`[]`))

	rr := do(ac.Refresh, http.MethodPost, "/refresh?u=octocat", "")
	require.Equal(t, http.StatusOK, rr.Code)

	_, ok := cache.Get("snapshot:octocat")
	assert.False(t, ok)
	_, ok = cache.Get("history:octocat")
	assert.False(t, ok)
	_, ok = cache.Get("accounts")
	assert.False(t, ok)
	_, ok = cache.Get("history:hubot")
	assert.True(t, ok)
}

func TestRefresh_FailureKeepsCache(t *testing.T) {
	ac, svc, cache := newTestController()
	svc.RefreshErr = github.ErrUserNotFound
	cache.Set("history:octocat", []byte(`[]`))

	do(ac.Refresh, http.MethodPost, "/refresh?u=octocat", "")

	_, ok := cache.Get("history:octocat")
	assert.True(t, ok)
}

// --- reads ---

func TestGetSnapshot_Found(t *testing.T) {
	ac, svc, cache := newTestController()
	svc.Snapshots["octocat"] = models.Snapshot{
		AccountID:  "octocat",
		CapturedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Followers:  []models.FollowerRecord{{Handle: "a"}},
	}

	rr := do(ac.GetSnapshot, http.MethodGet, "/snapshot?u=octocat", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "octocat", resp["username"])
	assert.Len(t, resp["followers"], 1)

	_, ok := cache.Get("snapshot:octocat")
	assert.True(t, ok)
}

func TestGetSnapshot_AbsentIs404AndNotCached(t *testing.T) {
	ac, _, cache := newTestController()

	rr := do(ac.GetSnapshot, http.MethodGet, "/snapshot?u=ghost", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	_, ok := cache.Get("snapshot:ghost")
	assert.False(t, ok)
}

func TestGetSnapshot_MissingAccount(t *testing.T) {
	ac, _, _ := newTestController()

	rr := do(ac.GetSnapshot, http.MethodGet, "/snapshot", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetHistory_EmptyIsArray(t *testing.T) {
	ac, _, _ := newTestController()

	rr := do(ac.GetHistory, http.MethodGet, "/history?u=ghost", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetHistory_ServedFromCache(t *testing.T) {
	ac, svc, cache := newTestController()
	cache.Set("history:octocat", []byte(`[{"date":"2026-03-01","count":9}]`))
	svc.ReadErr = errors.New("should not be called")

	rr := do(ac.GetHistory, http.MethodGet, "/history?u=octocat", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"date":"2026-03-01","count":9}]`, rr.Body.String())
}

func TestGetHistory_StoreError(t *testing.T) {
	ac, svc, _ := newTestController()
	svc.ReadErr = errors.New("storage: get history: locked")

	rr := do(ac.GetHistory, http.MethodGet, "/history?u=octocat", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "locked")
}

func TestGetAccounts(t *testing.T) {
	ac, svc, _ := newTestController()
	svc.AccountList = []string{"alice", "bob"}

	rr := do(ac.GetAccounts, http.MethodGet, "/accounts", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["alice","bob"]`, rr.Body.String())
}

// --- session ---

func TestGetSession_None(t *testing.T) {
	ac, _, _ := newTestController()

	rr := do(ac.GetSession, http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSaveSession_ThenGet(t *testing.T) {
	ac, _, _ := newTestController()

	rr := do(ac.SaveSession, http.MethodPost, "/session", `{"username":"octocat","token":"ghp_abc"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(ac.GetSession, http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"username":"octocat","hasToken":true}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "ghp_abc")
}

func TestSaveSession_InvalidJSON(t *testing.T) {
	ac, _, _ := newTestController()

	rr := do(ac.SaveSession, http.MethodPost, "/session", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveSession_UnknownUser(t *testing.T) {
	ac, svc, _ := newTestController()
	svc.SessionErr = github.ErrUserNotFound

	rr := do(ac.SaveSession, http.MethodPost, "/session", `{"username":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogout(t *testing.T) {
	ac, svc, _ := newTestController()
	svc.Session = &models.Session{Username: "octocat"}

	rr := do(ac.Logout, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Nil(t, svc.Session)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		req.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, bearerToken(req), tt.header)
	}
}
