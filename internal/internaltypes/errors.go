package internaltypes

import "errors"

var (
	ErrConfigMissing = errors.New("missing required config")
	ErrAuthExpired   = errors.New("auth expired")
)
