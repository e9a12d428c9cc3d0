package storage

import (
	"context"
	"errors"
	"followtrack/internal/models"
	"followtrack/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackup(t *testing.T) (*BackupManager, *Store) {
	t.Helper()
	s, _ := newTestStore(t)
	return NewBackupManager(s, s.compressor, &testutil.MockLogger{}), s
}

func TestBackup_ExportImportRoundtrip(t *testing.T) {
	src, srcStore := newTestBackup(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backup.zst")

	require.NoError(t, srcStore.SaveSnapshotAt(ctx, "alice", fl("a", "b"), at(1)))
	require.NoError(t, srcStore.SaveSnapshotAt(ctx, "alice", fl("a", "b", "c"), at(2)))
	require.NoError(t, srcStore.UpsertDailyCount(ctx, "bob", 7, "2026-03-02"))

	n, err := src.Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst, dstStore := newTestBackup(t)
	n, err = dst.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, ok, err := dstStore.GetSnapshot(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fl("a", "b", "c"), snap.Followers)
	assert.True(t, at(2).Equal(snap.CapturedAt))

	history, err := dstStore.GetHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCountRecord{
		{Date: "2026-03-01", Count: 2},
		{Date: "2026-03-02", Count: 3},
	}, history)

	_, ok, err = dstStore.GetSnapshot(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	history, err = dstStore.GetHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCountRecord{{Date: "2026-03-02", Count: 7}}, history)
}

func TestBackup_ImportMissingFile(t *testing.T) {
	b, _ := newTestBackup(t)

	n, err := b.Import(context.Background(), filepath.Join(t.TempDir(), "missing.zst"))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackup_ImportInvalidData(t *testing.T) {
	b, _ := newTestBackup(t)
	path := filepath.Join(t.TempDir(), "broken.zst")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	_, err := b.Import(context.Background(), path)
	assert.Error(t, err)
}

func TestBackup_ImportUnsupportedVersion(t *testing.T) {
	b, s := newTestBackup(t)
	path := filepath.Join(t.TempDir(), "future.zst")

	raw, err := json.Marshal(models.StoreDump{Version: 99, Accounts: map[string]*models.AccountDump{}})
	require.NoError(t, err)
	data, err := s.compressor.Compress(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = b.Import(context.Background(), path)
	assert.ErrorContains(t, err, "unsupported backup version")
}

func TestBackup_ImportTrimsOversizedHistory(t *testing.T) {
	b, s := newTestBackup(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "big.zst")

	records := make([]models.DailyCountRecord, 0, 10)
	for day := 10; day >= 1; day-- {
		records = append(records, models.DailyCountRecord{Date: models.DateOf(at(day), time.UTC), Count: day})
	}
	raw, err := json.Marshal(models.StoreDump{
		Version:  models.DumpVersion,
		Accounts: map[string]*models.AccountDump{"alice": {History: records}},
	})
	require.NoError(t, err)
	data, err := s.compressor.Compress(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = b.Import(ctx, path)
	require.NoError(t, err)

	history, err := s.GetHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, models.HistoryLimit)
	assert.Equal(t, 10, history[len(history)-1].Count)
}

func TestBackup_ExportWriteFailure(t *testing.T) {
	b, _ := newTestBackup(t)

	_, err := b.Export(context.Background(), filepath.Join(t.TempDir(), "no", "such", "dir", "b.zst"))
	assert.Error(t, err)
}

func TestBackup_ExportCompressFailure(t *testing.T) {
	s, _ := newTestStore(t)
	compressor := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("boom") },
	}
	b := NewBackupManager(s, compressor, &testutil.MockLogger{})

	_, err := b.Export(context.Background(), filepath.Join(t.TempDir(), "b.zst"))
	assert.Error(t, err)
}

func TestStore_RestoreAccount_WithoutSnapshotDropsExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSnapshotAt(ctx, "alice", fl("a", "b"), at(1)))

	entry := &models.AccountDump{History: []models.DailyCountRecord{{Date: "2026-03-05", Count: 4}}}
	require.NoError(t, s.RestoreAccount(ctx, "alice", entry))

	_, ok, err := s.GetSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := s.GetHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCountRecord{{Date: "2026-03-05", Count: 4}}, history)
}
