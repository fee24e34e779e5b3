// Package control implements the line-oriented control protocol used to
// switch profiles, request reloads and query status over a local unix
// socket.
//
// Protocol: one newline-terminated ASCII command per connection.
//   - PROFILE <name>  ->  OK <canonical-name> | ERR unknown profile '<name>'
//   - RELOAD          ->  OK reloading
//   - STATUS          ->  ACTIVE <name>\nPROFILES <name> <name> ...
//   - anything else   ->  ERR unknown command
package control

import "strings"

const (
	// MaxCommandLen bounds a request, newline included.
	MaxCommandLen = 256
	// MaxResponseLen bounds a response, trailing newline included.
	MaxResponseLen = 256
)

// Protocol keywords.
const (
	CmdProfile = "PROFILE"
	CmdReload  = "RELOAD"
	CmdStatus  = "STATUS"
)

// Target is the engine state a command acts on.
type Target interface {
	// ActivateProfile switches to the profile matching name
	// case-insensitively and returns its canonical name. ok is false, and
	// nothing changes, when no profile matches.
	ActivateProfile(name string) (canonical string, ok bool)
	// RequestReload raises the reload flag. It must not reload inline.
	RequestReload()
	ActiveProfileName() string
	ProfileNames() []string
}

// Execute interprets one command line and returns the response, always
// newline-terminated and at most MaxResponseLen bytes.
func Execute(line string, target Target) string {
	cmd := strings.TrimRight(line, "\r\n")

	switch {
	case strings.HasPrefix(cmd, CmdProfile+" "):
		name := cmd[len(CmdProfile)+1:]
		if canonical, ok := target.ActivateProfile(name); ok {
			return bounded("OK " + canonical)
		}
		return bounded("ERR unknown profile '" + name + "'")

	case cmd == CmdReload:
		target.RequestReload()
		return "OK reloading\n"

	case cmd == CmdStatus:
		return statusResponse(target.ActiveProfileName(), target.ProfileNames())

	default:
		return "ERR unknown command\n"
	}
}

// statusResponse lists as many profile names as fit in the response bound.
// Names that do not fit are left out whole.
func statusResponse(active string, names []string) string {
	// The PROFILES line is always present, even if the active name is cut.
	if room := MaxResponseLen - 1 - len("ACTIVE \nPROFILES"); len(active) > room {
		active = active[:room]
	}

	var b strings.Builder
	b.WriteString("ACTIVE ")
	b.WriteString(active)
	b.WriteString("\nPROFILES")

	for _, name := range names {
		// Room for " name" plus the final newline.
		if b.Len()+1+len(name)+1 > MaxResponseLen {
			break
		}
		b.WriteByte(' ')
		b.WriteString(name)
	}
	return bounded(b.String())
}

// bounded truncates body so that body plus newline fits MaxResponseLen.
func bounded(body string) string {
	if len(body) > MaxResponseLen-1 {
		body = body[:MaxResponseLen-1]
	}
	return body + "\n"
}
