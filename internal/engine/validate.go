package engine

import "regexp"

const (
	minNameLen = 3
	maxNameLen = 16
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

func ValidatePlayerName(name string) error {
	if len(name) < minNameLen || len(name) > maxNameLen {
		return ErrNameLength
	}
	if !namePattern.MatchString(name) {
		return ErrNameCharset
	}
	return nil
}
