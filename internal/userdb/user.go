package userdb

import "time"

// User is a credential record. Passwords are stored verbatim and compared
// with exact string equality at login.
type User struct {
	Username  string `json:"username"`
	Password  string `json:"-"`
	CreatedAt int64  `json:"created_at"`
}

// FormattedCreatedAt renders the account creation time for display.
func (u User) FormattedCreatedAt() string {
	return FormatCreatedAt(u.CreatedAt)
}

// FormatCreatedAt converts a Unix timestamp (seconds) to the fixed display
// pattern "MM/DD/YYYY at hh:mm AM/PM UTC". The stored value is interpreted
// as true UTC.
func FormatCreatedAt(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format("01/02/2006 at 03:04 PM") + " UTC"
}
