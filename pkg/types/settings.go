package types

// Settings is a per-user boolean settings store for the "history enabled"
// flag. A user with no explicit value is enabled.
type Settings interface {
	// HistoryEnabled reports whether history is enabled for the user.
	HistoryEnabled(userID UserID) bool

	// SetHistoryEnabled records an explicit per-user value.
	SetHistoryEnabled(userID UserID, enabled bool) error
}
