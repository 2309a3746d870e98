package types

// NotificationHistory is an ordered collection of historical notification
// records, accumulated across one or more per-user stores during a read.
// The zero value is an empty, usable history.
type NotificationHistory struct {
	notifications []HistoricalNotification
}

// NewNotificationHistory returns an empty history.
func NewNotificationHistory() *NotificationHistory {
	return &NotificationHistory{}
}

// AddNotificationToWrite appends one record, preserving insertion order.
func (h *NotificationHistory) AddNotificationToWrite(n HistoricalNotification) {
	h.notifications = append(h.notifications, n)
}

// AddNotificationsToWrite appends every record from other. A nil other
// contributes nothing.
func (h *NotificationHistory) AddNotificationsToWrite(other *NotificationHistory) {
	if other == nil {
		return
	}
	h.notifications = append(h.notifications, other.notifications...)
}

// RemoveNotificationFromWrite drops the record matching pkg and postedTime.
// Returns true if a record was removed.
func (h *NotificationHistory) RemoveNotificationFromWrite(pkg string, postedTime int64) bool {
	for i, n := range h.notifications {
		if n.Package == pkg && n.PostedTime == postedTime {
			h.notifications = append(h.notifications[:i], h.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// NotificationsToWrite returns a copy of the accumulated records.
// Returns an empty slice (not nil) for an empty history.
func (h *NotificationHistory) NotificationsToWrite() []HistoricalNotification {
	out := make([]HistoricalNotification, len(h.notifications))
	copy(out, h.notifications)
	return out
}

// Count returns the number of accumulated records.
func (h *NotificationHistory) Count() int {
	return len(h.notifications)
}
