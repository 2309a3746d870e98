// Package notifhist holds project-wide metadata for the notification
// history manager.
package notifhist

// Version is the current release version.
const Version = "v0.1.0"
