package models

import "time"

// FollowerRecord is one account following a tracked account. JSON names
// match the GitHub users API so pages decode straight into it.
type FollowerRecord struct {
	Handle     string `json:"login"`
	AvatarURL  string `json:"avatar_url"`
	ProfileURL string `json:"html_url"`
}

// Snapshot is the full follower list of one account at one refresh.
type Snapshot struct {
	AccountID  string           `json:"username"`
	CapturedAt time.Time        `json:"timestamp"`
	Followers  []FollowerRecord `json:"followers"`
}
