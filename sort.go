// Package linesort implements an external merge sort for text files of `<integer>. <text>` lines.
//
// The input is split into chunks of at most Config.ChunkSize non-blank lines, each chunk is
// sorted in memory and spilled to a file in a temp directory, and the chunk files are then
// merged with a priority queue into one sorted output file. Lines are ordered by their text
// (byte-wise) and then by their numeric id. See Compare.
package linesort

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/lanrat/linesort/tempfile"
)

// Stats describes one completed Sort call
type Stats struct {
	Lines       int64 // non-blank lines read and written
	Malformed   int64 // lines without a numeric id, sorted as unkeyed records
	Chunks      int   // chunk files produced by the split phase
	MergePasses int   // merge passes including intermediate passes
}

// Sorter sorts line files. A Sorter may be used by several goroutines as long as
// every concurrent call uses its own temp directory.
type Sorter struct {
	config    Config
	log       logrus.FieldLogger
	metrics   *metrics
	openChunk func(path string, bufSize int) (tempfile.ChunkReader, error)
}

// New creates a Sorter from config. Unset fields take their DefaultConfig values.
func New(config *Config) (*Sorter, error) {
	c := mergeConfig(config)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Sorter{
		config:    *c,
		log:       c.Logger,
		metrics:   newMetrics(c.Registerer),
		openChunk: openFileChunk,
	}, nil
}

func openFileChunk(path string, bufSize int) (tempfile.ChunkReader, error) {
	return tempfile.Open(path, bufSize)
}

// Sort sorts the file at inputPath into outputPath, using tempDir for chunk files.
// chunkSizeLines is the number of lines per chunk; see Config for the resulting memory bound.
// It is the same as calling Sorter.Sort with a Config that only sets ChunkSize, so input
// lines longer than the default MaxLineSize are rejected.
func Sort(inputPath, outputPath, tempDir string, chunkSizeLines int) error {
	if chunkSizeLines < 1 {
		return &ConfigError{Field: "ChunkSize", Value: chunkSizeLines, Reason: "must be a positive number of lines"}
	}
	s, err := New(&Config{ChunkSize: chunkSizeLines})
	if err != nil {
		return err
	}
	_, err = s.Sort(context.Background(), inputPath, outputPath, tempDir)
	return err
}

// Sort sorts the file at inputPath into outputPath.
//
// Chunk files are written to tempDir, which is created if missing. An empty tempDir
// uses a fresh directory under tempfile.DefaultDir that is removed afterwards.
// The caller must not share tempDir between concurrent calls.
//
// A missing input returns an *InputNotFoundError before anything is created.
// An input line longer than Config.MaxLineSize fails the sort with bufio.ErrTooLong.
// On success outputPath is replaced atomically. On any error the partial output and
// every chunk file created by the call are removed.
func (s *Sorter) Sort(ctx context.Context, inputPath, outputPath, tempDir string) (stats Stats, err error) {
	start := time.Now()
	log := s.log.WithFields(logrus.Fields{"action": "sort", "input": inputPath, "output": outputPath})

	in, err := openInput(inputPath)
	if err != nil {
		return stats, err
	}
	defer in.Close()

	job, err := s.newJob(inputPath, tempDir, log)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cleanupErr := job.cleanup(); cleanupErr != nil {
			if err == nil {
				err = cleanupErr
			} else {
				err = multierror.Append(err, cleanupErr)
			}
		}
	}()

	if err = job.produceChunks(ctx, in); err != nil {
		return stats, err
	}
	if err = in.Close(); err != nil {
		return stats, NewDiskError(err, "close input", inputPath)
	}
	log.WithFields(logrus.Fields{"chunks": len(job.chunks), "lines": job.lines.Load()}).Debug("split phase complete")

	out, err := createOutput(outputPath, s.config.FileBufferSize)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			_ = out.abort()
		}
	}()

	var w lineWriter = out
	if s.config.Unique {
		w = newUniqWriter(out)
	}
	if len(job.chunks) > 0 {
		if err = job.mergeChunks(ctx, job.chunks, w); err != nil {
			return stats, err
		}
	}
	if err = out.commit(); err != nil {
		return stats, err
	}

	stats = Stats{
		Lines:       job.lines.Load(),
		Malformed:   job.malformed.Load(),
		Chunks:      len(job.chunks),
		MergePasses: job.passes,
	}
	s.record(stats, time.Since(start))

	if stats.Malformed > 0 {
		log.WithField("malformed", stats.Malformed).Warn("lines without a numeric id were sorted as unkeyed records")
	}
	log.WithFields(logrus.Fields{
		"lines":    stats.Lines,
		"chunks":   stats.Chunks,
		"passes":   stats.MergePasses,
		"duration": time.Since(start),
	}).Info("sort complete")
	return stats, nil
}

// record exports the stats of a successful sort
func (s *Sorter) record(stats Stats, elapsed time.Duration) {
	s.metrics.lines.Add(float64(stats.Lines))
	s.metrics.malformed.Add(float64(stats.Malformed))
	s.metrics.chunks.Add(float64(stats.Chunks))
	s.metrics.mergePasses.Add(float64(stats.MergePasses))
	s.metrics.duration.Observe(elapsed.Seconds())
}

// openInput opens the input, mapping a missing file (or a directory) to InputNotFoundError
func openInput(path string) (*os.File, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &InputNotFoundError{Path: path, Cause: err}
		}
		return nil, NewDiskError(err, "stat input", path)
	}
	if stat.IsDir() {
		return nil, &InputNotFoundError{Path: path, Cause: errors.New("is a directory")}
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &InputNotFoundError{Path: path, Cause: err}
		}
		return nil, NewDiskError(err, "open input", path)
	}
	return f, nil
}

// sortJob is the state of one Sort call. Nothing in it outlives the call.
type sortJob struct {
	cfg        *Config
	log        logrus.FieldLogger
	inputPath  string
	dir        string
	ownsDir    bool // dir was created by this job and is removed on cleanup
	nextIndex  int
	passes     int
	lines      atomic.Int64
	malformed  atomic.Int64
	openChunk  func(path string, bufSize int) (tempfile.ChunkReader, error)
	chunksLock sync.Mutex
	chunks     []Chunk
	created    []string // every chunk file created, removed on cleanup
}

func (s *Sorter) newJob(inputPath, tempDir string, log logrus.FieldLogger) (*sortJob, error) {
	j := &sortJob{
		cfg:       &s.config,
		log:       log,
		inputPath: inputPath,
		dir:       tempDir,
		openChunk: s.openChunk,
	}
	if tempDir == "" {
		base := tempfile.DefaultDir()
		if err := tempfile.EnsureDir(base); err != nil {
			return nil, NewDiskError(err, "create temp dir", base)
		}
		dir, err := os.MkdirTemp(base, "linesort-")
		if err != nil {
			return nil, NewDiskError(err, "create temp dir", base)
		}
		j.dir = dir
		j.ownsDir = true
	} else if err := tempfile.EnsureDir(tempDir); err != nil {
		return nil, NewDiskError(err, "create temp dir", tempDir)
	}
	j.log = j.log.WithField("temp_dir", j.dir)
	return j, nil
}

// track records a chunk file so cleanup can remove it
func (j *sortJob) track(path string) {
	j.chunksLock.Lock()
	j.created = append(j.created, path)
	j.chunksLock.Unlock()
}

func (j *sortJob) addChunk(c Chunk) {
	j.chunksLock.Lock()
	j.chunks = append(j.chunks, c)
	j.chunksLock.Unlock()
}

// cleanup removes every chunk file this job created that is still on disk
func (j *sortJob) cleanup() error {
	var result *multierror.Error
	for _, path := range j.created {
		if err := tempfile.Remove(path); err != nil {
			result = multierror.Append(result, NewDiskError(err, "remove chunk", path))
		}
	}
	if j.ownsDir {
		if err := os.Remove(j.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, NewDiskError(err, "remove temp dir", j.dir))
		}
	}
	return result.ErrorOrNil()
}
