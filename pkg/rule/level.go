package rule

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned when a severity level is not one of low,
// medium, high.
var ErrUnknownLevel = errors.New("unknown level")

// Level is the severity of a rule or finding.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// AllLevels lists the valid severity levels, lowest first.
var AllLevels = []Level{LevelLow, LevelMedium, LevelHigh}

// ParseLevel parses a severity level string.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelLow:
		return LevelLow, nil
	case LevelMedium:
		return LevelMedium, nil
	case LevelHigh:
		return LevelHigh, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Rank orders levels for comparison; higher is more severe. Unknown levels
// rank below low.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	}

	return 0
}

// Max returns the more severe of the two levels.
func (l Level) Max(other Level) Level {
	if other.Rank() > l.Rank() {
		return other
	}

	return l
}
