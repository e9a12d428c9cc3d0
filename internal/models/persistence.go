package models

import "time"

// DumpVersion is the current backup envelope version.
const DumpVersion = 1

// AccountDump holds everything the store keeps for one account.
type AccountDump struct {
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
	History  []DailyCountRecord `json:"history"`
}

// StoreDump is the backup envelope with an explicit version field.
type StoreDump struct {
	Version    int                     `json:"version"`
	ExportedAt time.Time               `json:"exported_at"`
	Accounts   map[string]*AccountDump `json:"accounts"`
}
