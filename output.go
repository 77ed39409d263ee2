package linesort

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/lanrat/linesort/tempfile"
)

// outputFile writes the merged lines to a temp file next to the destination and
// renames it into place on commit, so a failed sort never leaves a truncated output.
type outputFile struct {
	path      string
	file      *os.File
	bufWriter *bufio.Writer
	done      bool
}

func createOutput(path string, bufSize int) (*outputFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".linesort-*")
	if err != nil {
		return nil, NewDiskError(err, "create output", path)
	}
	return &outputFile{
		path:      path,
		file:      f,
		bufWriter: bufio.NewWriterSize(f, bufSize),
	}, nil
}

func (o *outputFile) WriteLine(s string) error {
	if _, err := o.bufWriter.WriteString(s); err != nil {
		return err
	}
	return o.bufWriter.WriteByte('\n')
}

// commit flushes and closes the temp file and moves it over the destination
func (o *outputFile) commit() error {
	if err := o.bufWriter.Flush(); err != nil {
		return NewDiskError(err, "flush output", o.file.Name())
	}
	if err := o.file.Chmod(0o644); err != nil {
		return NewDiskError(err, "chmod output", o.file.Name())
	}
	if err := o.file.Close(); err != nil {
		return NewDiskError(err, "close output", o.file.Name())
	}
	if err := os.Rename(o.file.Name(), o.path); err != nil {
		return NewDiskError(err, "rename output", o.path)
	}
	o.done = true
	return nil
}

// abort discards the partial output
func (o *outputFile) abort() error {
	if o.done {
		return nil
	}
	o.done = true
	_ = o.file.Close()
	return tempfile.Remove(o.file.Name())
}
