package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrProjectNotFound       = fmt.Errorf("project %w", ErrNotFound)
	ErrPingServiceNotFound   = fmt.Errorf("ping service %w", ErrNotFound)
	ErrBlacklistNotFound     = fmt.Errorf("blacklist entry %w", ErrNotFound)
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrInvalidPingDefinition = errors.New("invalid ping definition")
	ErrInvalidProject        = errors.New("invalid project")
	ErrProtectedProject      = errors.New("system project cannot be deleted")
	ErrAccessDenied          = errors.New("access denied")
	ErrInvalidBlacklist      = errors.New("invalid blacklist entry")
	ErrAlreadyBlacklisted    = errors.New("ip already blacklisted")
	ErrInvalidSettings       = errors.New("invalid settings")
)

type ValidationKind string

const (
	InvalidLevel      ValidationKind = "invalid_level"
	UnknownTag        ValidationKind = "unknown_tag"
	MalformedMetadata ValidationKind = "malformed_metadata"
)

type ValidationError struct {
	Kind   ValidationKind
	Tag    string
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case InvalidLevel:
		return fmt.Sprintf("invalid level %q", e.Detail)
	case UnknownTag:
		return fmt.Sprintf("unknown tag %q", e.Tag)
	default:
		return fmt.Sprintf("malformed metadata: %s", e.Detail)
	}
}
