package linesort

import (
	"io"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lanrat/linesort/tempfile"
)

// Config holds configuration settings for a Sorter.
//
// ChunkSize is the number of non-blank lines written to each chunk. While splitting,
// up to NumSortWorkers chunks are being sorted, as many more wait in the queue for a
// worker, and one is being read, so peak memory is about
// (2*NumSortWorkers+1)*ChunkSize lines.
type Config struct {
	ChunkSize      int                   // non-blank lines per chunk, see above for the memory bound
	NumSortWorkers int                   // maximum number of chunks sorted and saved concurrently
	MaxFanIn       int                   // maximum number of chunk files open at once while merging
	FileBufferSize int                   // file IO buffer size for each chunk file and the output
	MaxLineSize    int                   // longest input line accepted, in bytes; longer lines fail with bufio.ErrTooLong
	Unique         bool                  // drop consecutive duplicate lines from the output
	Logger         logrus.FieldLogger    // nil discards log output
	Registerer     prometheus.Registerer // nil keeps metrics unregistered
}

// DefaultConfig returns the default configuration options used if none provided
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:      100_000,
		NumSortWorkers: runtime.GOMAXPROCS(0),
		MaxFanIn:       64,
		FileBufferSize: tempfile.DefaultBufferSize,
		MaxLineSize:    16 << 20, // 16MB, the scan buffer only grows this far for long lines
	}
}

// mergeConfig takes a provided config and replaces any values not set with the defaults.
// ChunkSize is left alone so validate can reject negative values.
func mergeConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	merged := *c
	if merged.ChunkSize == 0 {
		merged.ChunkSize = d.ChunkSize
	}
	if merged.NumSortWorkers < 1 {
		merged.NumSortWorkers = d.NumSortWorkers
	}
	if merged.MaxFanIn == 0 {
		merged.MaxFanIn = d.MaxFanIn
	}
	if merged.FileBufferSize <= 0 {
		merged.FileBufferSize = d.FileBufferSize
	}
	if merged.MaxLineSize <= 0 {
		merged.MaxLineSize = d.MaxLineSize
	}
	if merged.Logger == nil {
		merged.Logger = discardLogger()
	}
	return &merged
}

// validate rejects settings that cannot be defaulted
func (c *Config) validate() error {
	if c.ChunkSize < 1 {
		return &ConfigError{Field: "ChunkSize", Value: c.ChunkSize, Reason: "must be a positive number of lines"}
	}
	if c.MaxFanIn < 2 {
		return &ConfigError{Field: "MaxFanIn", Value: c.MaxFanIn, Reason: "must be at least 2"}
	}
	return nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
