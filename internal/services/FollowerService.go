package services

import (
	"context"
	"errors"
	"followtrack/internal/github"
	"followtrack/internal/models"
	"followtrack/internal/providers"
	"followtrack/internal/storage/interfaces"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyAccount = errors.New("account id must not be empty")

const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

type FollowerServiceInterface interface {
	Refresh(ctx context.Context, accountID, token string) (*models.RefreshResult, error)
	Snapshot(ctx context.Context, accountID string) (models.Snapshot, bool, error)
	History(ctx context.Context, accountID string) ([]models.DailyCountRecord, error)
	Accounts(ctx context.Context) ([]string, error)
	Login(ctx context.Context, username, token string) (models.Session, error)
	CurrentSession(ctx context.Context) (models.Session, bool, error)
	Logout(ctx context.Context) error
}

type FollowerService struct {
	store    interfaces.HistoryStoreInterface
	sessions interfaces.SessionStoreInterface
	client   github.ClientInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	clock    func() time.Time
}

func NewFollowerService(store interfaces.HistoryStoreInterface, sessions interfaces.SessionStoreInterface, client github.ClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) FollowerServiceInterface {
	return &FollowerService{
		store:    store,
		sessions: sessions,
		client:   client,
		logger:   logger,
		metrics:  metrics,
		clock:    time.Now,
	}
}

// Refresh fetches the current followers of accountID, diffs them against the
// stored snapshot and saves the new one. Nothing is saved when the fetch fails.
func (fs *FollowerService) Refresh(ctx context.Context, accountID, token string) (*models.RefreshResult, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrEmptyAccount
	}

	runID := uuid.NewString()
	token = fs.resolveToken(ctx, accountID, token)

	var (
		previous models.Snapshot
		found    bool
		current  []models.FollowerRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		previous, found, err = fs.store.GetSnapshot(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = fs.client.GetFollowers(gctx, accountID, token, func(n int) {
			fs.logger.Debugf(providers.TypeApp, "[%s] fetched %d followers of %s", runID, n, accountID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		fs.fail(runID, accountID, err)
		return nil, err
	}

	var previousFollowers []models.FollowerRecord
	if found {
		previousFollowers = previous.Followers
	}
	diff := models.ComputeDiff(current, previousFollowers)

	capturedAt := fs.clock()
	if err := fs.store.SaveSnapshotAt(ctx, accountID, current, capturedAt); err != nil {
		fs.fail(runID, accountID, err)
		return nil, err
	}

	history, err := fs.store.GetHistory(ctx, accountID)
	if err != nil {
		fs.fail(runID, accountID, err)
		return nil, err
	}

	result := &models.RefreshResult{
		RunID:        runID,
		AccountID:    accountID,
		Diff:         diff,
		History:      history,
		WeeklyChange: models.WeeklyChange(history),
		FirstRun:     !found,
		CapturedAt:   capturedAt,
	}
	if found {
		prev := previous.CapturedAt
		result.PreviousCapturedAt = &prev
	}

	fs.metrics.IncRefreshTotal(OutcomeOK)
	fs.metrics.SetFollowersTotal(accountID, diff.CurrentTotal)
	fs.logger.Infof(providers.TypeApp, "[%s] refreshed %s: %d followers, +%d -%d",
		runID, accountID, diff.CurrentTotal, len(diff.Added), len(diff.Removed))

	return result, nil
}

func (fs *FollowerService) fail(runID, accountID string, err error) {
	outcome := Outcome(err)
	fs.metrics.IncRefreshTotal(outcome)
	if outcome == OutcomeError {
		fs.logger.Errorf(providers.TypeApp, "[%s] refresh of %s failed: %s", runID, accountID, err)
		return
	}
	fs.logger.Warnf(providers.TypeApp, "[%s] refresh of %s failed: %s", runID, accountID, err)
}

// Outcome maps a refresh error to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, github.ErrUserNotFound):
		return OutcomeNotFound
	case errors.Is(err, github.ErrRateLimited):
		return OutcomeRateLimited
	default:
		return OutcomeError
	}
}

// resolveToken picks the explicit token, then the remembered one when the
// session belongs to accountID. An empty result lets the client use its own.
func (fs *FollowerService) resolveToken(ctx context.Context, accountID, token string) string {
	if token != "" {
		return token
	}
	sess, ok, err := fs.sessions.LoadSession(ctx)
	if err != nil {
		fs.logger.Warnf(providers.TypeApp, "Could not load session: %s", err)
		return ""
	}
	if ok && strings.EqualFold(sess.Username, accountID) {
		return sess.Token
	}
	return ""
}

func (fs *FollowerService) Snapshot(ctx context.Context, accountID string) (models.Snapshot, bool, error) {
	return fs.store.GetSnapshot(ctx, strings.TrimSpace(accountID))
}

func (fs *FollowerService) History(ctx context.Context, accountID string) ([]models.DailyCountRecord, error) {
	return fs.store.GetHistory(ctx, strings.TrimSpace(accountID))
}

func (fs *FollowerService) Accounts(ctx context.Context) ([]string, error) {
	return fs.store.Accounts(ctx)
}

// Login checks that username exists and remembers it with token.
func (fs *FollowerService) Login(ctx context.Context, username, token string) (models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Session{}, ErrEmptyAccount
	}

	user, err := fs.client.GetUser(ctx, username, token)
	if err != nil {
		return models.Session{}, err
	}
	if user.Handle != "" {
		username = user.Handle
	}

	if err := fs.sessions.SaveSession(ctx, username, token); err != nil {
		return models.Session{}, err
	}
	fs.logger.Infof(providers.TypeApp, "Logged in as %s (token: %t)", username, token != "")

	sess, _, err := fs.sessions.LoadSession(ctx)
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func (fs *FollowerService) CurrentSession(ctx context.Context) (models.Session, bool, error) {
	return fs.sessions.LoadSession(ctx)
}

func (fs *FollowerService) Logout(ctx context.Context) error {
	if err := fs.sessions.ClearSession(ctx); err != nil {
		return err
	}
	fs.logger.Infof(providers.TypeApp, "Logged out")
	return nil
}
