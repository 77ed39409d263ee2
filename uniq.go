package linesort

// uniqWriter drops lines byte-identical to a line already written.
// Sorted output only groups lines by record, and different lines can parse to the
// same record ("1. a" and "01. a"), so duplicates are tracked across each run of
// equal records rather than against the previous line alone.
type uniqWriter struct {
	next     lineWriter
	prior    Record
	priorSet bool
	seen     map[string]struct{} // raw lines written in the current run
}

func newUniqWriter(next lineWriter) *uniqWriter {
	return &uniqWriter{next: next, seen: make(map[string]struct{})}
}

func (u *uniqWriter) WriteLine(s string) error {
	rec := ParseLine(s)
	if u.priorSet && Compare(u.prior, rec) == 0 {
		if _, ok := u.seen[s]; ok {
			return nil
		}
	} else {
		clear(u.seen)
	}
	u.priorSet = true
	u.prior = rec
	u.seen[s] = struct{}{}
	return u.next.WriteLine(s)
}
