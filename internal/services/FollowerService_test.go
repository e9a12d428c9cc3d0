package services

import (
	"context"
	"errors"
	"fmt"
	"followtrack/internal/github"
	"followtrack/internal/models"
	"followtrack/internal/testutil"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc      *FollowerService
	store    *testutil.MockHistoryStore
	sessions *testutil.MockSessionStore
	client   *testutil.MockGitHubClient
	metrics  *testutil.MockMetrics
	logger   *testutil.MockLogger
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		store:    testutil.NewMockHistoryStore(),
		sessions: &testutil.MockSessionStore{},
		client:   testutil.NewMockGitHubClient(),
		metrics:  testutil.NewMockMetrics(),
		logger:   &testutil.MockLogger{},
	}
	f.svc = NewFollowerService(f.store, f.sessions, f.client, f.logger, f.metrics).(*FollowerService)
	f.svc.clock = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return f
}

func followers(handles ...string) []models.FollowerRecord {
	out := make([]models.FollowerRecord, 0, len(handles))
	for _, h := range handles {
		out = append(out, models.FollowerRecord{Handle: h})
	}
	return out
}

func handles(records []models.FollowerRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Handle)
	}
	return out
}

func TestRefresh_FirstRun(t *testing.T) {
	f := newFixture()
	f.client.Followers["octocat"] = followers("a", "b", "c")

	res, err := f.svc.Refresh(context.Background(), "octocat", "")
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.True(t, res.FirstRun)
	assert.Nil(t, res.PreviousCapturedAt)
	assert.Equal(t, []string{"a", "b", "c"}, handles(res.Diff.Added))
	assert.Empty(t, res.Diff.Removed)
	assert.Equal(t, 3, res.Diff.CurrentTotal)
	assert.Equal(t, 0, res.Diff.PreviousTotal)
	assert.Equal(t, []models.DailyCountRecord{{Date: "2026-03-10", Count: 3}}, res.History)
	assert.Equal(t, 0, res.WeeklyChange)

	assert.Equal(t, 1, f.metrics.Refreshes[OutcomeOK])
	assert.Equal(t, 3, f.metrics.Followers["octocat"])
}

func TestRefresh_DiffAgainstSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	yesterday := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.SaveSnapshotAt(ctx, "octocat", followers("a", "b", "c"), yesterday))
	f.client.Followers["octocat"] = followers("b", "c", "d", "e")

	res, err := f.svc.Refresh(ctx, "octocat", "")
	require.NoError(t, err)

	assert.False(t, res.FirstRun)
	require.NotNil(t, res.PreviousCapturedAt)
	assert.True(t, yesterday.Equal(*res.PreviousCapturedAt))
	assert.Equal(t, []string{"d", "e"}, handles(res.Diff.Added))
	assert.Equal(t, []string{"a"}, handles(res.Diff.Removed))
	assert.Equal(t, 4, res.Diff.CurrentTotal)
	assert.Equal(t, 3, res.Diff.PreviousTotal)
	assert.Len(t, res.History, 2)
	assert.Equal(t, 1, res.WeeklyChange)

	snap, ok, err := f.store.GetSnapshot(ctx, "octocat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "d", "e"}, handles(snap.Followers))
}

func TestRefresh_EmptyAccount(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Refresh(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrEmptyAccount)
	assert.Zero(t, f.store.SaveCalls)
}

func TestRefresh_FetchFailureSavesNothing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"not found", github.ErrUserNotFound, OutcomeNotFound},
		{"rate limited", fmt.Errorf("%w, please use a token", github.ErrRateLimited), OutcomeRateLimited},
		{"api error", &github.APIError{Status: 502}, OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.client.Err = tt.err

			_, err := f.svc.Refresh(context.Background(), "octocat", "")
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, f.store.SaveCalls)
			assert.Equal(t, 1, f.metrics.Refreshes[tt.outcome])
		})
	}
}

func TestRefresh_StoreReadFailure(t *testing.T) {
	f := newFixture()
	f.store.GetErr = errors.New("disk gone")

	_, err := f.svc.Refresh(context.Background(), "octocat", "")
	assert.Error(t, err)
	assert.Zero(t, f.store.SaveCalls)
	assert.Equal(t, 1, f.logger.Count("error"))
}

func TestRefresh_SaveFailure(t *testing.T) {
	f := newFixture()
	f.store.SaveErr = errors.New("locked")
	f.client.Followers["octocat"] = followers("a")

	_, err := f.svc.Refresh(context.Background(), "octocat", "")
	assert.Error(t, err)
	assert.Equal(t, 1, f.metrics.Refreshes[OutcomeError])
}

func TestRefresh_TokenResolution(t *testing.T) {
	tests := []struct {
		name     string
		session  *models.Session
		explicit string
		want     string
	}{
		{"explicit wins", &models.Session{Username: "octocat", Token: "stored"}, "given", "given"},
		{"session of same user", &models.Session{Username: "OctoCat", Token: "stored"}, "", "stored"},
		{"session of other user", &models.Session{Username: "hubot", Token: "stored"}, "", ""},
		{"no session", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.sessions.Session = tt.session

			_, err := f.svc.Refresh(context.Background(), "octocat", tt.explicit)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, f.client.Tokens)
		})
	}
}

func TestRefresh_SessionErrorFallsBackToNoToken(t *testing.T) {
	f := newFixture()
	f.sessions.Err = errors.New("boom")

	_, err := f.svc.Refresh(context.Background(), "octocat", "")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, f.client.Tokens)
	assert.Equal(t, 1, f.logger.Count("warn"))
}

func TestReads_PassThrough(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, ok, err := f.svc.Snapshot(ctx, "octocat")
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := f.svc.History(ctx, "octocat")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, f.store.UpsertDailyCount(ctx, "octocat", 4, "2026-03-01"))
	accounts, err := f.svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat"}, accounts)
}

func TestLogin_UsesCanonicalLogin(t *testing.T) {
	f := newFixture()
	f.client.Users["octocat"] = models.FollowerRecord{Handle: "OctoCat"}

	sess, err := f.svc.Login(context.Background(), "octocat", "ghp_abc")
	require.NoError(t, err)
	assert.Equal(t, "OctoCat", sess.Username)
	assert.True(t, sess.HasToken())
	assert.Equal(t, []string{"ghp_abc"}, f.client.Tokens)
}

func TestLogin_UnknownUserKeepsSession(t *testing.T) {
	f := newFixture()
	f.sessions.Session = &models.Session{Username: "hubot"}
	f.client.Err = github.ErrUserNotFound

	_, err := f.svc.Login(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, github.ErrUserNotFound)
	assert.Equal(t, "hubot", f.sessions.Session.Username)
}

func TestLogin_Empty(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyAccount)
}

func TestLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.sessions.Session = &models.Session{Username: "octocat"}

	require.NoError(t, f.svc.Logout(ctx))
	_, ok, err := f.svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeNotFound, Outcome(fmt.Errorf("wrap: %w", github.ErrUserNotFound)))
	assert.Equal(t, OutcomeRateLimited, Outcome(github.ErrRateLimited))
	assert.Equal(t, OutcomeError, Outcome(errors.New("other")))
}

func TestReads_TrimAccountID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.client.Followers["octocat"] = followers("a", "b")

	_, err := f.svc.Refresh(ctx, " octocat", "")
	require.NoError(t, err)

	history, err := f.svc.History(ctx, " octocat")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCountRecord{{Date: "2026-03-10", Count: 2}}, history)

	snap, ok, err := f.svc.Snapshot(ctx, "octocat ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, handles(snap.Followers))
}
