package models

import "time"

// Session is the remembered login: the tracked username and an optional
// bearer token that is passed to the remote API untouched.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Session) HasToken() bool {
	return s.Token != ""
}
