package tempfile

import (
	"io"
)

// ChunkWriter writes one sorted chunk, one line at a time.
// Save must be called once all lines are written; Close without Save aborts
// the chunk and removes it from disk.
type ChunkWriter interface {
	io.Writer
	io.StringWriter
	io.Closer

	// WriteLine writes s followed by a newline.
	WriteLine(s string) error

	// Name returns the path of the chunk file on disk.
	Name() string

	// Save flushes buffered data and closes the file, keeping it on disk.
	Save() error
}

// ChunkReader reads a chunk back sequentially.
type ChunkReader interface {
	io.Closer

	// ReadLine returns the next line without its terminator, or io.EOF.
	ReadLine() (string, error)

	// Name returns the path of the chunk file on disk.
	Name() string

	// Remove closes the reader and deletes the file from disk.
	Remove() error
}
