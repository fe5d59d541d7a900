package episode

import (
	"errors"
	"fmt"
	"strings"
)

// Quality is a coarse desirability band. Bands are ordered
// low < medium < high; unknown sorts below all of them.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
)

// ErrUnknownQuality is returned for strings outside the known bands.
var ErrUnknownQuality = errors.New("episode: unknown quality")

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseQuality maps a config or feed label to a band. Matching is
// case-insensitive; the empty string parses to QualityUnknown.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return QualityUnknown, nil
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	}
	return QualityUnknown, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
