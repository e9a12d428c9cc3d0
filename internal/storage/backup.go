package storage

import (
	"context"
	"fmt"
	"followtrack/internal/models"
	"followtrack/internal/providers"
	"followtrack/internal/storage/interfaces"
	"os"

	json "github.com/goccy/go-json"
)

// BackupManager writes the whole store to a compressed file and reads it back.
type BackupManager struct {
	store      *Store
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewBackupManager(store *Store, compressor interfaces.CompressorInterface, logger providers.Logger) *BackupManager {
	return &BackupManager{
		store:      store,
		compressor: compressor,
		logger:     logger,
	}
}

// Export dumps every account into fileName. The file is replaced atomically.
func (b *BackupManager) Export(ctx context.Context, fileName string) (int, error) {
	dump, err := b.store.Dump(ctx)
	if err != nil {
		return 0, err
	}

	jsonData, err := json.Marshal(dump)
	if err != nil {
		return 0, err
	}
	data, err := b.compressor.Compress(jsonData)
	if err != nil {
		return 0, err
	}

	if err := writeFileAtomic(fileName, data); err != nil {
		return 0, err
	}

	b.logger.Infof(providers.TypeApp, "Exported %d accounts to %s", len(dump.Accounts), fileName)
	return len(dump.Accounts), nil
}

// Import restores every account found in fileName. A missing file restores
// nothing and is not an error.
func (b *BackupManager) Import(ctx context.Context, fileName string) (int, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Warnf(providers.TypeApp, "Backup %s not found, nothing to import", fileName)
			return 0, nil
		}
		return 0, err
	}

	decompressed, err := b.compressor.Decompress(data)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}

	var dump models.StoreDump
	if err := json.Unmarshal(decompressed, &dump); err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}
	if dump.Version != models.DumpVersion {
		return 0, fmt.Errorf("unsupported backup version %d", dump.Version)
	}

	restored := 0
	for id, entry := range dump.Accounts {
		if entry == nil {
			continue
		}
		if err := b.store.RestoreAccount(ctx, id, entry); err != nil {
			return restored, err
		}
		restored++
	}

	b.logger.Infof(providers.TypeApp, "Imported %d accounts from %s", restored, fileName)
	return restored, nil
}

func writeFileAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}
