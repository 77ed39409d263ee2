package linesort

import (
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/lanrat/linesort/tempfile"
)

// CheckFile verifies that the file at path is sorted under Compare, ignoring blank lines.
// Lines are split on '\n' only, matching the output Sort writes.
// It returns the number of non-blank lines read and an *OrderError for the first pair of
// lines found out of order.
func CheckFile(path string) (int, error) {
	r, err := tempfile.Open(path, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &InputNotFoundError{Path: path, Cause: err}
		}
		return 0, NewDiskError(err, "open", path)
	}
	defer r.Close()

	var (
		prev     Record
		havePrev bool
		count    int
	)
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadLine()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, NewDiskError(err, "read", path)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		count++
		rec := ParseLine(line)
		if havePrev && Compare(prev, rec) > 0 {
			return count, &OrderError{Line: lineNo, Prev: prev.Line(), Next: rec.Line()}
		}
		prev, havePrev = rec, true
	}
}
