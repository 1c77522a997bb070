package model

import (
	"errors"
	"fmt"
)

// Mode selects the ranking algorithm used by search.
type Mode string

const (
	ModeAuto    Mode = ""
	ModeKeyword Mode = "keyword"
	ModeVector  Mode = "vector"
	ModeHybrid  Mode = "hybrid"
)

// ErrInvalidMode is returned for a mode string ParseMode does not know.
var ErrInvalidMode = errors.New("invalid search mode")

// ParseMode validates a caller-supplied mode string. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModeKeyword, ModeVector, ModeHybrid:
		return m, nil
	}
	return "", fmt.Errorf("%w %q (valid: keyword, vector, hybrid)", ErrInvalidMode, s)
}

// ResolveMode picks the effective mode from the request and whether
// vectors are available. Vector-backed modes fall back to keyword.
func ResolveMode(requested Mode, vectorsEnabled bool) Mode {
	switch requested {
	case ModeAuto:
		if vectorsEnabled {
			return ModeVector
		}
		return ModeKeyword
	case ModeVector, ModeHybrid:
		if vectorsEnabled {
			return requested
		}
		return ModeKeyword
	}
	return ModeKeyword
}
