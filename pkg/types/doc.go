// Package types defines the Store and StoreFactory interfaces, the
// notification record types, user identifiers, and standard errors for
// the notifhist history service.
package types
