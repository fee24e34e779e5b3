package profile

import "strings"

// MatchWindowClass picks the profile for a focused window's WM_CLASS.
// A pattern matches when the class contains it, case-insensitively, so
// "blender" matches both "Blender" and "blender-4.2". The first non-default profile
// with a matching pattern wins; with no match the default profile is
// returned.
//
// The router never calls this; it serves the focus watcher, which turns the
// answer into a PROFILE command.
func (s *Store) MatchWindowClass(wmClass string) string {
	class := strings.ToLower(strings.TrimSpace(wmClass))
	if class == "" {
		return DefaultName
	}
	for _, p := range s.profiles[1:] {
		for _, pattern := range p.WindowClasses {
			pat := strings.ToLower(strings.TrimSpace(pattern))
			if pat == "" {
				continue
			}
			if strings.Contains(class, pat) {
				return p.Name
			}
		}
	}
	return s.profiles[0].Name
}
