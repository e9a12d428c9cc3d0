package testutil

import (
	"context"
	"followtrack/internal/models"
	"followtrack/internal/providers"
	"sort"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface and records calls.
type MockMetrics struct {
	mu          sync.Mutex
	StoreOps    []string
	Refreshes   map[string]int
	Followers   map[string]int
	CacheHits   int
	CacheMisses int
	Requests    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Refreshes: make(map[string]int),
		Followers: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObserveStoreDuration(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreOps = append(m.StoreOps, op)
}

func (m *MockMetrics) IncRefreshTotal(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes[outcome]++
}

func (m *MockMetrics) SetFollowersTotal(account string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Followers[account] = count
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Data, k)
	}
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// identity
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockHistoryStore is an in-memory interfaces.HistoryStoreInterface.
type MockHistoryStore struct {
	mu        sync.Mutex
	Snapshots map[string]models.Snapshot
	Series    map[string]*models.HistorySeries
	Now       time.Time
	SaveErr   error
	GetErr    error
	SaveCalls int
}

func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{
		Snapshots: make(map[string]models.Snapshot),
		Series:    make(map[string]*models.HistorySeries),
		Now:       time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (m *MockHistoryStore) SaveSnapshot(ctx context.Context, accountID string, followers []models.FollowerRecord) error {
	return m.SaveSnapshotAt(ctx, accountID, followers, m.Now)
}

func (m *MockHistoryStore) SaveSnapshotAt(_ context.Context, accountID string, followers []models.FollowerRecord, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Snapshots[accountID] = models.Snapshot{
		AccountID:  accountID,
		CapturedAt: at,
		Followers:  append([]models.FollowerRecord{}, followers...),
	}
	m.upsert(accountID, len(followers), models.DateOf(at, time.UTC))
	return nil
}

func (m *MockHistoryStore) GetSnapshot(_ context.Context, accountID string) (models.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return models.Snapshot{}, false, m.GetErr
	}
	snap, ok := m.Snapshots[accountID]
	return snap, ok, nil
}

func (m *MockHistoryStore) UpsertDailyCount(_ context.Context, accountID string, count int, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(accountID, count, date)
	return nil
}

func (m *MockHistoryStore) upsert(accountID string, count int, date string) {
	series, ok := m.Series[accountID]
	if !ok {
		series = &models.HistorySeries{AccountID: accountID}
		m.Series[accountID] = series
	}
	series.Upsert(date, count)
}

func (m *MockHistoryStore) GetHistory(_ context.Context, accountID string) ([]models.DailyCountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	series, ok := m.Series[accountID]
	if !ok {
		return []models.DailyCountRecord{}, nil
	}
	return append([]models.DailyCountRecord{}, series.Records...), nil
}

func (m *MockHistoryStore) Accounts(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	seen := make(map[string]struct{})
	for id := range m.Snapshots {
		seen[id] = struct{}{}
	}
	for id := range m.Series {
		seen[id] = struct{}{}
	}
	accounts := make([]string, 0, len(seen))
	for id := range seen {
		accounts = append(accounts, id)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// MockSessionStore is an in-memory interfaces.SessionStoreInterface.
type MockSessionStore struct {
	mu      sync.Mutex
	Session *models.Session
	Err     error
}

func (m *MockSessionStore) SaveSession(_ context.Context, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Session = &models.Session{Username: username, Token: token, UpdatedAt: time.Now()}
	return nil
}

func (m *MockSessionStore) LoadSession(_ context.Context) (models.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Session{}, false, m.Err
	}
	if m.Session == nil {
		return models.Session{}, false, nil
	}
	return *m.Session, true, nil
}

func (m *MockSessionStore) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Session = nil
	return nil
}

// MockGitHubClient implements github.ClientInterface.
type MockGitHubClient struct {
	mu        sync.Mutex
	Users     map[string]models.FollowerRecord
	Followers map[string][]models.FollowerRecord
	Err       error
	Tokens    []string
}

func NewMockGitHubClient() *MockGitHubClient {
	return &MockGitHubClient{
		Users:     make(map[string]models.FollowerRecord),
		Followers: make(map[string][]models.FollowerRecord),
	}
}

func (m *MockGitHubClient) GetUser(_ context.Context, username, token string) (models.FollowerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, token)
	if m.Err != nil {
		return models.FollowerRecord{}, m.Err
	}
	user, ok := m.Users[username]
	if !ok {
		return models.FollowerRecord{Handle: username}, nil
	}
	return user, nil
}

func (m *MockGitHubClient) GetFollowers(_ context.Context, username, token string, onProgress func(int)) ([]models.FollowerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, token)
	if m.Err != nil {
		return nil, m.Err
	}
	followers := append([]models.FollowerRecord{}, m.Followers[username]...)
	if onProgress != nil {
		onProgress(len(followers))
	}
	return followers, nil
}

// MockFollowerService implements services.FollowerServiceInterface.
type MockFollowerService struct {
	mu           sync.Mutex
	Result       *models.RefreshResult
	RefreshErr   error
	Snapshots    map[string]models.Snapshot
	HistoryData  map[string][]models.DailyCountRecord
	AccountList  []string
	ReadErr      error
	Session      *models.Session
	SessionErr   error
	RefreshCalls []RefreshCall
}

type RefreshCall struct {
	AccountID string
	Token     string
}

func NewMockFollowerService() *MockFollowerService {
	return &MockFollowerService{
		Snapshots:   make(map[string]models.Snapshot),
		HistoryData: make(map[string][]models.DailyCountRecord),
		AccountList: []string{},
	}
}

func (m *MockFollowerService) Refresh(_ context.Context, accountID, token string) (*models.RefreshResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls = append(m.RefreshCalls, RefreshCall{AccountID: accountID, Token: token})
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.RefreshResult{AccountID: accountID, History: []models.DailyCountRecord{}}, nil
}

func (m *MockFollowerService) Snapshot(_ context.Context, accountID string) (models.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return models.Snapshot{}, false, m.ReadErr
	}
	snap, ok := m.Snapshots[accountID]
	return snap, ok, nil
}

func (m *MockFollowerService) History(_ context.Context, accountID string) ([]models.DailyCountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	records, ok := m.HistoryData[accountID]
	if !ok {
		return []models.DailyCountRecord{}, nil
	}
	return records, nil
}

func (m *MockFollowerService) Accounts(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.AccountList, nil
}

func (m *MockFollowerService) Login(_ context.Context, username, token string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return models.Session{}, m.SessionErr
	}
	m.Session = &models.Session{Username: username, Token: token}
	return *m.Session, nil
}

func (m *MockFollowerService) CurrentSession(_ context.Context) (models.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return models.Session{}, false, m.SessionErr
	}
	if m.Session == nil {
		return models.Session{}, false, nil
	}
	return *m.Session, true, nil
}

func (m *MockFollowerService) Logout(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return m.SessionErr
	}
	m.Session = nil
	return nil
}
