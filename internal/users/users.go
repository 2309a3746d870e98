// Package users provides a config-backed user enumeration source. Hosts
// with a real account service would implement types.UserSource directly;
// the CLI and tests enumerate users from configuration.
package users

import (
	"sort"

	"github.com/ledgerline/notifhist/pkg/types"
)

// Source implements types.UserSource over a set fixed at construction.
// The system user is always present.
type Source struct {
	users map[types.UserID]types.UserInfo
}

// NewSource builds a source from the given ids, deduplicated. The system
// user is added whether or not it is listed.
func NewSource(ids []types.UserID) *Source {
	s := &Source{users: make(map[types.UserID]types.UserInfo)}
	s.users[types.UserSystem] = types.UserInfo{ID: types.UserSystem, Name: "system"}
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			s.users[id] = types.UserInfo{ID: id}
		}
	}
	return s
}

// Users returns the known users ordered by id.
func (s *Source) Users() []types.UserInfo {
	out := make([]types.UserInfo, 0, len(s.users))
	for _, info := range s.users {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
