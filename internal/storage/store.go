package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"followtrack/internal/models"
	"followtrack/internal/providers"
	"followtrack/internal/storage/interfaces"
	"followtrack/internal/structures"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const (
	opSaveSnapshot = "save snapshot"
	opGetSnapshot  = "get snapshot"
	opUpsertCount  = "upsert daily count"
	opGetHistory   = "get history"
	opAccounts     = "list accounts"
	opDump         = "dump"
	opRestore      = "restore account"
	opSession      = "session"
)

// Store is the SQLite backed history store. The database is opened on first
// use and kept open until Close.
type Store struct {
	path        string
	busyTimeout time.Duration
	location    *time.Location
	clock       func() time.Time
	compressor  interfaces.CompressorInterface
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface

	mu sync.Mutex
	db *sql.DB
}

func NewStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) (*Store, error) {
	loc, err := loadLocation(conf.Storage.Location)
	if err != nil {
		return nil, err
	}
	return &Store{
		path:        conf.Storage.DbPath,
		busyTimeout: conf.Storage.BusyTimeout,
		location:    loc,
		clock:       time.Now,
		compressor:  compressor,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown storage location %q: %w", name, err)
	}
	return loc, nil
}

func (s *Store) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()))
	q.Add("_txlock", "immediate")
	return s.path + "?" + q.Encode()
}

// conn returns the shared handle, opening the database on first call.
func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := InitSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s.logger.Infof(providers.TypeApp, "Opened history database %s", s.path)
	s.db = db
	return db, nil
}

// Close releases the database handle. A later call reopens it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) observe(op string, start time.Time) {
	s.metrics.ObserveStoreDuration(op, time.Since(start))
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Errorf(providers.TypeApp, "transaction rollback failed: %s (original error: %s)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveSnapshot stores followers as the latest snapshot of accountID and
// records today's count, both in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, accountID string, followers []models.FollowerRecord) error {
	return s.SaveSnapshotAt(ctx, accountID, followers, s.clock())
}

// SaveSnapshotAt is SaveSnapshot with an explicit capture time. The daily
// count goes to the calendar day of at in the store location.
func (s *Store) SaveSnapshotAt(ctx context.Context, accountID string, followers []models.FollowerRecord, at time.Time) error {
	defer s.observe("save_snapshot", time.Now())

	blob, err := s.encodeFollowers(followers)
	if err != nil {
		return newStorageError(opSaveSnapshot, accountID, err)
	}

	date := models.DateOf(at, s.location)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := putSnapshot(ctx, tx, accountID, at, blob); err != nil {
			return err
		}
		return s.upsertDailyCount(ctx, tx, accountID, len(followers), date)
	})
	if err != nil {
		return newStorageError(opSaveSnapshot, accountID, err)
	}

	s.logger.Debugf(providers.TypeApp, "Saved snapshot of %s: %d followers on %s", accountID, len(followers), date)
	return nil
}

// GetSnapshot returns the latest snapshot of accountID. The boolean is false
// when the account was never saved.
func (s *Store) GetSnapshot(ctx context.Context, accountID string) (models.Snapshot, bool, error) {
	defer s.observe("get_snapshot", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return models.Snapshot{}, false, newStorageError(opGetSnapshot, accountID, err)
	}
	snap, ok, err := s.readSnapshot(ctx, db, accountID)
	if err != nil {
		return models.Snapshot{}, false, newStorageError(opGetSnapshot, accountID, err)
	}
	return snap, ok, nil
}

// UpsertDailyCount sets the count of accountID for date, replacing a record
// of the same date and keeping only the newest models.HistoryLimit days.
func (s *Store) UpsertDailyCount(ctx context.Context, accountID string, count int, date string) error {
	defer s.observe("upsert_daily_count", time.Now())

	if count < 0 {
		return ErrInvalidCount
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertDailyCount(ctx, tx, accountID, count, date)
	})
	if err != nil {
		return newStorageError(opUpsertCount, accountID, err)
	}
	return nil
}

// GetHistory returns the daily counts of accountID ascending by date, or an
// empty slice when there are none.
func (s *Store) GetHistory(ctx context.Context, accountID string) ([]models.DailyCountRecord, error) {
	defer s.observe("get_history", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return nil, newStorageError(opGetHistory, accountID, err)
	}
	series, err := readHistory(ctx, db, accountID)
	if err != nil {
		return nil, newStorageError(opGetHistory, accountID, err)
	}
	return series.Records, nil
}

// Accounts lists every account that has a snapshot or a history, sorted.
func (s *Store) Accounts(ctx context.Context) ([]string, error) {
	defer s.observe("accounts", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return nil, newStorageError(opAccounts, "", err)
	}
	accounts, err := listAccounts(ctx, db)
	if err != nil {
		return nil, newStorageError(opAccounts, "", err)
	}
	return accounts, nil
}

// Dump reads every account in one transaction.
func (s *Store) Dump(ctx context.Context) (*models.StoreDump, error) {
	dump := &models.StoreDump{
		Version:    models.DumpVersion,
		ExportedAt: s.clock(),
		Accounts:   make(map[string]*models.AccountDump),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		accounts, err := listAccounts(ctx, tx)
		if err != nil {
			return err
		}
		for _, id := range accounts {
			entry := &models.AccountDump{}
			snap, ok, err := s.readSnapshot(ctx, tx, id)
			if err != nil {
				return err
			}
			if ok {
				entry.Snapshot = &snap
			}
			series, err := readHistory(ctx, tx, id)
			if err != nil {
				return err
			}
			entry.History = series.Records
			dump.Accounts[id] = entry
		}
		return nil
	})
	if err != nil {
		return nil, newStorageError(opDump, "", err)
	}
	return dump, nil
}

// RestoreAccount overwrites the snapshot and history of accountID with entry.
func (s *Store) RestoreAccount(ctx context.Context, accountID string, entry *models.AccountDump) error {
	series := models.HistorySeries{AccountID: accountID, Records: entry.History}
	series.Normalize()

	var blob []byte
	if entry.Snapshot != nil {
		var err error
		blob, err = s.encodeFollowers(entry.Snapshot.Followers)
		if err != nil {
			return newStorageError(opRestore, accountID, err)
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if entry.Snapshot != nil {
			if err := putSnapshot(ctx, tx, accountID, entry.Snapshot.CapturedAt, blob); err != nil {
				return err
			}
		} else if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE account_id = ?`, accountID); err != nil {
			return err
		}
		return putHistory(ctx, tx, accountID, series.Records)
	})
	if err != nil {
		return newStorageError(opRestore, accountID, err)
	}
	return nil
}

func (s *Store) upsertDailyCount(ctx context.Context, q DBTX, accountID string, count int, date string) error {
	series, err := readHistory(ctx, q, accountID)
	if err != nil {
		return err
	}
	series.Upsert(date, count)
	return putHistory(ctx, q, accountID, series.Records)
}

func (s *Store) readSnapshot(ctx context.Context, q DBTX, accountID string) (models.Snapshot, bool, error) {
	var capturedAt int64
	var blob []byte
	err := q.QueryRowContext(ctx, `SELECT captured_at, followers FROM snapshots WHERE account_id = ?`, accountID).Scan(&capturedAt, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, err
	}

	followers, err := s.decodeFollowers(blob)
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("corrupted snapshot: %w", err)
	}

	return models.Snapshot{
		AccountID:  accountID,
		CapturedAt: time.UnixMilli(capturedAt),
		Followers:  followers,
	}, true, nil
}

func putSnapshot(ctx context.Context, q DBTX, accountID string, at time.Time, blob []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO snapshots (account_id, captured_at, followers)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			captured_at = excluded.captured_at,
			followers = excluded.followers
	`, accountID, at.UnixMilli(), blob)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func readHistory(ctx context.Context, q DBTX, accountID string) (models.HistorySeries, error) {
	series := models.HistorySeries{AccountID: accountID, Records: []models.DailyCountRecord{}}

	var raw string
	err := q.QueryRowContext(ctx, `SELECT records FROM history WHERE account_id = ?`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return series, nil
	}
	if err != nil {
		return series, err
	}

	if err := json.Unmarshal([]byte(raw), &series.Records); err != nil {
		return series, fmt.Errorf("corrupted history: %w", err)
	}
	if series.Records == nil {
		series.Records = []models.DailyCountRecord{}
	}
	return series, nil
}

func putHistory(ctx context.Context, q DBTX, accountID string, records []models.DailyCountRecord) error {
	if records == nil {
		records = []models.DailyCountRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO history (account_id, records)
		VALUES (?, ?)
		ON CONFLICT(account_id) DO UPDATE SET records = excluded.records
	`, accountID, string(data))
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func listAccounts(ctx context.Context, q DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT account_id FROM snapshots
		UNION
		SELECT account_id FROM history
		ORDER BY account_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		accounts = append(accounts, id)
	}
	return accounts, rows.Err()
}
