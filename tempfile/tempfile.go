// Package tempfile manages the sorted chunk files an external sort spills to disk.
// Each chunk is a plain text file named after its index inside a job directory.
// Files are written in series, read back sequentially, and removed when done.
package tempfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultBufferSize is the file IO buffer size for each chunk file
const DefaultBufferSize = 1 << 16 // 64k

// ChunkName returns the deterministic file name for the chunk with the given index
func ChunkName(index int) string {
	return fmt.Sprintf("chunk_%d.txt", index)
}

// ChunkPath returns the path of the chunk with the given index inside dir
func ChunkPath(dir string, index int) string {
	return filepath.Join(dir, ChunkName(index))
}

// EnsureDir creates dir and any missing parents
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// Remove deletes the file at path. A file that is already gone is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// FileWriter is a ChunkWriter backed by a file on disk
type FileWriter struct {
	file      *os.File
	bufWriter *bufio.Writer
	saved     bool
}

// Create creates (or truncates) the chunk file for index inside dir
func Create(dir string, index int, bufSize int) (*FileWriter, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	f, err := os.OpenFile(ChunkPath(dir, index), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWriter{
		file:      f,
		bufWriter: bufio.NewWriterSize(f, bufSize),
	}, nil
}

// Name returns the path of the chunk file
func (w *FileWriter) Name() string {
	return w.file.Name()
}

func (w *FileWriter) Write(p []byte) (int, error) {
	return w.bufWriter.Write(p)
}

// WriteString writes s to the chunk without a terminator
func (w *FileWriter) WriteString(s string) (int, error) {
	return w.bufWriter.WriteString(s)
}

// WriteLine writes s and a trailing newline
func (w *FileWriter) WriteLine(s string) error {
	if _, err := w.bufWriter.WriteString(s); err != nil {
		return err
	}
	return w.bufWriter.WriteByte('\n')
}

// Save flushes the buffer and closes the file, leaving it on disk for reading
func (w *FileWriter) Save() error {
	if err := w.bufWriter.Flush(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	w.saved = true
	return nil
}

// Close aborts an unsaved chunk: the file is closed and removed from disk.
// Closing a saved chunk is a no-op.
func (w *FileWriter) Close() error {
	if w.saved {
		return nil
	}
	w.saved = true
	err := w.file.Close()
	if rmErr := Remove(w.file.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// FileReader is a ChunkReader backed by a file on disk
type FileReader struct {
	file   *os.File
	reader *bufio.Reader
	closed bool
}

// Open opens the chunk file at path for sequential reading
func Open(path string, bufSize int) (*FileReader, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileReader{
		file:   f,
		reader: bufio.NewReaderSize(f, bufSize),
	}, nil
}

// Name returns the path of the chunk file
func (r *FileReader) Name() string {
	return r.file.Name()
}

// ReadLine returns the next line without its '\n' terminator. Any other byte,
// including a trailing '\r', is part of the line.
// A final line without a newline is still returned; io.EOF follows it.
func (r *FileReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line[:len(line)-1], nil
}

// Close closes the underlying file. It is safe to call more than once.
func (r *FileReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.reader = nil
	return r.file.Close()
}

// Remove closes the reader and deletes the chunk file
func (r *FileReader) Remove() error {
	err := r.Close()
	if rmErr := Remove(r.file.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

var (
	_ ChunkWriter = (*FileWriter)(nil)
	_ ChunkReader = (*FileReader)(nil)
)
