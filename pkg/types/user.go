package types

// UserID identifies an OS user account. The system user is always 0;
// secondary users receive arbitrary positive identifiers from the host.
type UserID int32

// UserSystem is the primordial system user, present on every host.
const UserSystem UserID = 0

// perUserUIDRange is the size of each user's application uid block.
// An application uid encodes its owning user as uid / perUserUIDRange.
const perUserUIDRange = 100000

// UserIDFromUID derives the owning user id from an application uid.
func UserIDFromUID(uid int32) UserID {
	if uid < 0 {
		return UserSystem
	}
	return UserID(uid / perUserUIDRange)
}

// UserInfo describes one known user account.
type UserInfo struct {
	ID   UserID `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// UserSource enumerates the user accounts known to the host.
// Implementations must tolerate repeated calls; the result may change
// between calls as users are added or removed.
type UserSource interface {
	Users() []UserInfo
}
