package models

import "time"

// ActivityLog records a user's login/logout window, mirroring the
// activity_logs table consumed by the admin directory.
type ActivityLog struct {
	ID         int64      `db:"log_id" json:"log_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	LoginTime  time.Time  `db:"login_time" json:"login_time"`
	LogoutTime *time.Time `db:"logout_time" json:"logout_time,omitempty"`
}
