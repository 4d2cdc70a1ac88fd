package forms

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNameFormat is returned when a form name is not a lowercase slug.
	ErrNameFormat = errors.New("name must contain only lowercase alphanumeric characters and hyphens, and must not start or end with a hyphen")

	// ErrPathFormat is returned when a form path has an empty or malformed segment.
	ErrPathFormat = errors.New("path segments must contain only lowercase alphanumeric characters, hyphens and underscores")

	// ErrPathReserved is returned when a form path is served by this tier itself.
	ErrPathReserved = errors.New("path is reserved")

	namePattern    = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]*[a-z0-9])?$`)
	segmentPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-_]*[a-z0-9])?$`)

	// reservedPaths are routes the router registers before any form.
	reservedPaths = map[string]bool{
		"/":             true,
		"/healthz":      true,
		"/metrics":      true,
		"/theme":        true,
		"/auth/logout":  true,
		"/auth/refresh": true,
	}

	// reservedPrefixes cover whole subtrees.
	reservedPrefixes = []string{"/static/"}
)

// ValidateName checks that a form name is a lowercase slug.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrNameFormat, name)
	}
	return nil
}

// ValidatePath checks that path is an absolute, clean route that does not
// collide with a route the router serves itself.
func ValidatePath(path string) error {
	if reservedPaths[path] {
		return fmt.Errorf("%w: %q", ErrPathReserved, path)
	}
	for _, p := range reservedPrefixes {
		if path+"/" == p || strings.HasPrefix(path, p) {
			return fmt.Errorf("%w: %q", ErrPathReserved, path)
		}
	}
	rest, ok := strings.CutPrefix(path, "/")
	if !ok {
		return fmt.Errorf("%w: %q", ErrPathFormat, path)
	}
	for _, seg := range strings.Split(rest, "/") {
		if !segmentPattern.MatchString(seg) {
			return fmt.Errorf("%w: %q", ErrPathFormat, path)
		}
	}
	return nil
}
