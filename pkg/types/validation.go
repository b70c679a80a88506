package types

import "regexp"

// Compiled once at package initialization; these run on every join and
// add-idea command.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidSessionID checks a client-supplied session identifier.
func IsValidSessionID(id string) bool {
	return len(id) >= 1 && len(id) <= 64 && idPattern.MatchString(id)
}

// IsValidUserID checks a client-supplied user identifier.
func IsValidUserID(id string) bool {
	return len(id) >= 1 && len(id) <= 64 && idPattern.MatchString(id)
}

// IsValidSessionName checks a session display name.
func IsValidSessionName(name string) bool {
	return len(name) >= 1 && len(name) <= 200
}

// IsValidIdeaText checks idea content length.
func IsValidIdeaText(text string) bool {
	return len(text) >= 1 && len(text) <= 2000
}
