package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a human-facing record number: two-letter prefix, two-digit
// year and a zero padded sequence, e.g. HB25007.
type Number struct {
	Prefix string
	Year   int
	Seq    int
}

func (n Number) String() string {
	return fmt.Sprintf("%s%02d%03d", n.Prefix, n.Year%100, n.Seq)
}

// Stem is the prefix+YY part shared by every number of that year.
func Stem(prefix string, year int) string {
	return fmt.Sprintf("%s%02d", prefix, year%100)
}

// ParseSeq reads the sequence part of a number. ok is false when s does not
// start with stem or has no numeric suffix.
func ParseSeq(s, stem string) (int, bool) {
	if !strings.HasPrefix(s, stem) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(stem):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
