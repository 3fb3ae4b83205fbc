// Package adoption provides team roster types and adoption metrics.
// All functions are pure - no side effects.
package adoption

import (
	"sort"
	"strings"
)

// Member represents a team member from the Admin API roster
// (immutable value type).
type Member struct {
	Name      string
	Email     string
	ID        string
	Role      string
	IsRemoved bool
}

// IsOwner returns true if the member holds an owner role.
func (m Member) IsOwner() bool {
	return m.Role == "owner" || m.Role == "free-owner"
}

// IsActive returns true if the member still has access.
func (m Member) IsActive() bool {
	return !m.IsRemoved
}

// SortName returns the lowercase display key used for roster ordering:
// the name when present, the email otherwise.
func (m Member) SortName() string {
	if m.Name != "" {
		return strings.ToLower(m.Name)
	}
	return strings.ToLower(m.Email)
}

// Roster is a team roster split by access status.
type Roster struct {
	All     []Member
	Active  []Member
	Owners  []Member
	Removed []Member
}

// ActiveEmails returns the set of lowercase emails with active access.
func (r Roster) ActiveEmails() map[string]Member {
	byEmail := make(map[string]Member, len(r.Active))
	for _, m := range r.Active {
		byEmail[strings.ToLower(m.Email)] = m
	}
	return byEmail
}

// SplitRoster partitions members into active, owner, and removed lists,
// each sorted by display name. Removed members never appear in the active
// or owner lists.
func SplitRoster(members []Member) Roster {
	r := Roster{All: members}

	for _, m := range members {
		if !m.IsActive() {
			r.Removed = append(r.Removed, m)
			continue
		}
		r.Active = append(r.Active, m)
		if m.IsOwner() {
			r.Owners = append(r.Owners, m)
		}
	}

	byName := func(members []Member) {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].SortName() < members[j].SortName()
		})
	}
	byName(r.Active)
	byName(r.Owners)
	byName(r.Removed)

	return r
}
