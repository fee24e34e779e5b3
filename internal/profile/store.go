package profile

import "strings"

// Store is the ordered profile collection plus the active index.
// Index 0 is always the "default" profile.
//
// A Store is owned by a single goroutine (the daemon loop); it has no locking.
type Store struct {
	profiles []Profile
	active   int
}

// DefaultStore returns a store holding only the built-in default profile.
func DefaultStore() *Store {
	return &Store{
		profiles: []Profile{{Name: DefaultName, Config: DefaultConfig()}},
	}
}

// newStore builds a store from already-capped profiles. profiles[0] must be
// the default profile.
func newStore(profiles []Profile) *Store {
	if len(profiles) == 0 {
		return DefaultStore()
	}
	return &Store{profiles: profiles}
}

// Len returns the number of profiles.
func (s *Store) Len() int { return len(s.profiles) }

// Profile returns the profile at index i, or nil when out of range.
func (s *Store) Profile(i int) *Profile {
	if i < 0 || i >= len(s.profiles) {
		return nil
	}
	return &s.profiles[i]
}

// Names returns the profile names in store order.
func (s *Store) Names() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// Lookup finds a profile by case-insensitive exact name.
func (s *Store) Lookup(name string) (int, bool) {
	for i, p := range s.profiles {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Active returns the active index.
func (s *Store) Active() int { return s.active }

// ActiveProfile returns the active profile. It is never nil.
func (s *Store) ActiveProfile() *Profile {
	return &s.profiles[s.active]
}

// SetActive changes the active index. Out-of-range indices are rejected
// and leave the store unchanged.
func (s *Store) SetActive(i int) bool {
	if i < 0 || i >= len(s.profiles) {
		return false
	}
	s.active = i
	return true
}

// Replace swaps in the profiles of next, discarding the old ones entirely.
// The active profile is kept by exact name when next still has it,
// otherwise the default profile becomes active.
func (s *Store) Replace(next *Store) {
	oldName := s.ActiveProfile().Name
	s.profiles = next.profiles
	s.active = 0
	for i, p := range s.profiles {
		if p.Name == oldName {
			s.active = i
			break
		}
	}
}
