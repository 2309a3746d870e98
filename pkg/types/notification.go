package types

import "fmt"

// HistoricalNotification is one immutable record in a user's notification
// history. All fields are set through NotificationBuilder before the record
// enters a store; records compare by value.
type HistoricalNotification struct {
	Package     string `json:"package"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UID         int32  `json:"uid"`
	UserID      UserID `json:"user_id"`
	PostedTime  int64  `json:"posted_time"` // milliseconds since the epoch
	Title       string `json:"title"`
	Text        string `json:"text"`
	Icon        string `json:"icon,omitempty"` // resource reference, opaque to the store
}

// Key returns the identity used for point deletes: a record is addressed
// by its package and posted timestamp.
func (n HistoricalNotification) Key() string {
	return fmt.Sprintf("%s|%d", n.Package, n.PostedTime)
}

// Equal reports whether two records carry the same field values.
func (n HistoricalNotification) Equal(other HistoricalNotification) bool {
	return n == other
}

// NotificationBuilder accumulates fields for a HistoricalNotification.
// The zero builder is ready to use; Build returns the assembled record.
type NotificationBuilder struct {
	n HistoricalNotification
}

// NewNotificationBuilder returns an empty builder.
func NewNotificationBuilder() *NotificationBuilder {
	return &NotificationBuilder{}
}

// SetPackage sets the posting package name.
func (b *NotificationBuilder) SetPackage(pkg string) *NotificationBuilder {
	b.n.Package = pkg
	return b
}

// SetChannelID sets the notification channel id.
func (b *NotificationBuilder) SetChannelID(id string) *NotificationBuilder {
	b.n.ChannelID = id
	return b
}

// SetChannelName sets the notification channel display name.
func (b *NotificationBuilder) SetChannelName(name string) *NotificationBuilder {
	b.n.ChannelName = name
	return b
}

// SetUID sets the posting application uid.
func (b *NotificationBuilder) SetUID(uid int32) *NotificationBuilder {
	b.n.UID = uid
	return b
}

// SetUserID sets the target user.
func (b *NotificationBuilder) SetUserID(id UserID) *NotificationBuilder {
	b.n.UserID = id
	return b
}

// SetPostedTime sets the posted timestamp in milliseconds.
func (b *NotificationBuilder) SetPostedTime(ms int64) *NotificationBuilder {
	b.n.PostedTime = ms
	return b
}

// SetTitle sets the notification title.
func (b *NotificationBuilder) SetTitle(title string) *NotificationBuilder {
	b.n.Title = title
	return b
}

// SetText sets the notification body text.
func (b *NotificationBuilder) SetText(text string) *NotificationBuilder {
	b.n.Text = text
	return b
}

// SetIcon sets the icon resource reference.
func (b *NotificationBuilder) SetIcon(icon string) *NotificationBuilder {
	b.n.Icon = icon
	return b
}

// Build returns the accumulated record by value.
func (b *NotificationBuilder) Build() HistoricalNotification {
	return b.n
}
