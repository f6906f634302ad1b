package models

import (
	"regexp"

	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

const (
	// MaxAuthorityIDLength bounds the autid parameter.
	MaxAuthorityIDLength = 32
	// MaxCallbackLength bounds the JSONP callback name.
	MaxCallbackLength = 32
)

var (
	authorityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
	callbackPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)
)

// AuthorityID is a National Library authority identifier (autid).
// It is a domain primitive: a value of this type has passed ParseAuthorityID.
type AuthorityID string

// ParseAuthorityID validates a raw autid at the trust boundary.
func ParseAuthorityID(raw string) (AuthorityID, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "Bad query")
	}
	if len(raw) > MaxAuthorityIDLength || !authorityIDPattern.MatchString(raw) {
		return "", dErrors.New(dErrors.CodeBadRequest, "Invalid authority ID")
	}
	return AuthorityID(raw), nil
}

func (id AuthorityID) String() string {
	return string(id)
}

// Callback is a JSONP callback name restricted to a plain script identifier,
// so it can be emitted into a script body without escaping.
type Callback string

// ParseCallback validates a raw JSONP callback name.
func ParseCallback(raw string) (Callback, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "Missing callback")
	}
	if len(raw) > MaxCallbackLength || !callbackPattern.MatchString(raw) {
		return "", dErrors.New(dErrors.CodeBadRequest, "Invalid callback identifier")
	}
	return Callback(raw), nil
}

func (c Callback) String() string {
	return string(c)
}
