package linesort

import (
	"strconv"
	"strings"
)

// Separator splits the numeric id from the text in a keyed line
const Separator = ". "

// Record is one parsed input line.
// Lines that do not match `<integer>. <text>` are unkeyed: ID is 0, Text is the whole line
// and Keyed is false.
type Record struct {
	ID    int64
	Text  string
	Raw   string
	Keyed bool
}

// ParseLine splits line on the first Separator and parses the prefix as an integer id.
// Parsing never fails; a line without a valid id prefix degrades to an unkeyed Record.
func ParseLine(line string) Record {
	idx := strings.Index(line, Separator)
	if idx < 1 {
		return Record{Text: line, Raw: line}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(line[:idx]), 10, 64)
	if err != nil {
		return Record{Text: line, Raw: line}
	}
	return Record{
		ID:    id,
		Text:  line[idx+len(Separator):],
		Raw:   line,
		Keyed: true,
	}
}

// Line returns the original line the record was parsed from
func (r Record) Line() string {
	return r.Raw
}

// FormatLine builds a keyed line from an id and text
func FormatLine(id int64, text string) string {
	return strconv.FormatInt(id, 10) + Separator + text
}
