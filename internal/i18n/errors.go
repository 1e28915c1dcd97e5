package i18n

import "errors"

var (
	// ErrMalformedTree reports a node that is neither a string nor a mapping.
	ErrMalformedTree = errors.New("malformed language string tree")
	// ErrOverrideTypeMismatch reports an override value that is not a plain string.
	ErrOverrideTypeMismatch = errors.New("override value is not a string")
)
