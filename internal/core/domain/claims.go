package domain

import "time"

// Claims is the verified payload of a bearer token. A token binds one
// username to exactly one service; it must never be interpreted against any
// other service.
type Claims struct {
	Username  string
	Service   string
	ExpiresAt time.Time
}
