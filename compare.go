package linesort

import (
	"cmp"
	"strings"
)

// Compare is the total order over records: Text ascending (byte-wise), then ID ascending.
// It returns a negative number when a sorts before b, zero when they are equal and a
// positive number otherwise, following cmp.Compare.
// The chunk sort and the merge both order records with this function.
func Compare(a, b Record) int {
	if c := strings.Compare(a.Text, b.Text); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CompareLines parses and compares two raw lines
func CompareLines(a, b string) int {
	return Compare(ParseLine(a), ParseLine(b))
}
