package postcheck

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// amountPattern captures the first monetary figure in a clause: an optionally
// grouped number followed by an optional Chinese magnitude unit (万 ten
// thousand, 亿 hundred million).
var amountPattern = regexp.MustCompile(`([0-9]+(?:,[0-9]{3})*(?:\.[0-9]+)?)\s*(亿|万)?`)

// ParseAmount extracts the first monetary figure from a text fragment,
// normalized to CNY. Fullwidth digits and punctuation are folded to their
// ASCII forms before matching.
func ParseAmount(s string) (float64, bool) {
	s = width.Narrow.String(s)

	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	switch m[2] {
	case "万":
		v *= 1e4
	case "亿":
		v *= 1e8
	}

	return v, true
}
