// Command linesort sorts, generates and checks files of `<integer>. <text>` lines.
//
//	linesort generate -o large.txt -s 1GiB
//	linesort sort -i large.txt -o sorted.txt -c 1000000
//	linesort check -i sorted.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/lanrat/linesort"
	"github.com/lanrat/linesort/generate"
	"github.com/lanrat/linesort/tempfile"
)

type globalOptions struct {
	Verbose []bool `short:"v" long:"verbose" description:"Log progress; repeat for debug output"`
	JSONLog bool   `long:"json-log" env:"LINESORT_JSON_LOG" description:"Log as JSON"`
}

type sortCommand struct {
	Input     string `short:"i" long:"input" env:"LINESORT_INPUT" required:"true" description:"File to sort"`
	Output    string `short:"o" long:"output" env:"LINESORT_OUTPUT" required:"true" description:"Sorted file to write, replaced if it exists"`
	TempDir   string `short:"t" long:"temp-dir" env:"LINESORT_TEMP_DIR" description:"Directory for chunk files (default: a disk-backed temp dir)"`
	ChunkSize int    `short:"c" long:"chunk-size" env:"LINESORT_CHUNK_SIZE" default:"100000" description:"Lines per chunk; up to (2*workers+1) chunks are in memory at once"`
	Workers   int    `short:"w" long:"workers" env:"LINESORT_WORKERS" description:"Chunks sorted concurrently (default: GOMAXPROCS)"`
	FanIn     int    `long:"fan-in" env:"LINESORT_FAN_IN" default:"64" description:"Maximum chunk files open at once while merging"`
	Unique    bool   `short:"u" long:"unique" description:"Drop duplicate lines"`
	MaxLine   string `long:"max-line-size" env:"LINESORT_MAX_LINE_SIZE" default:"16MiB" description:"Longest input line accepted"`
}

type generateCommand struct {
	Output  string `short:"o" long:"output" required:"true" description:"File to write"`
	Size    string `short:"s" long:"size" default:"1MiB" description:"Target file size, e.g. 512KB or 2GiB"`
	Workers int    `short:"w" long:"workers" description:"Concurrent writers (default: GOMAXPROCS)"`
	Seed    uint64 `long:"seed" description:"Random seed (default: random)"`
}

type checkCommand struct {
	Input string `short:"i" long:"input" required:"true" description:"File to verify"`
}

var (
	options globalOptions
	log     = logrus.New()
)

func main() {
	parser := flags.NewParser(&options, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		configureLogger(log, options)
		return cmd.Execute(args)
	}
	mustAddCommand(parser, "sort", "Sort a file", "Sort a file of `<integer>. <text>` lines by text, then by number.", &sortCommand{})
	mustAddCommand(parser, "generate", "Generate a test file", "Write random `<integer>. <text>` lines up to a target size.", &generateCommand{})
	mustAddCommand(parser, "check", "Check a file is sorted", "Verify a file is in linesort order.", &checkCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data interface{}) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		panic(err)
	}
}

func configureLogger(l *logrus.Logger, opts globalOptions) {
	l.SetOutput(os.Stderr)
	switch {
	case len(opts.Verbose) > 1:
		l.SetLevel(logrus.DebugLevel)
	case len(opts.Verbose) == 1:
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}
	if opts.JSONLog {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
}

// signalContext returns a context cancelled on the first interrupt
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// Execute runs the sort in a per-run subdirectory of the temp dir so concurrent runs never collide
func (c *sortCommand) Execute(args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	base := c.TempDir
	if base == "" {
		base = tempfile.DefaultDir()
	}
	tempDir := filepath.Join(base, "linesort-"+uuid.NewString())

	var maxLine uint64
	if c.MaxLine != "" {
		var err error
		if maxLine, err = humanize.ParseBytes(c.MaxLine); err != nil {
			return fmt.Errorf("invalid max line size %q: %w", c.MaxLine, err)
		}
	}

	sorter, err := linesort.New(&linesort.Config{
		ChunkSize:      c.ChunkSize,
		NumSortWorkers: c.Workers,
		MaxFanIn:       c.FanIn,
		Unique:         c.Unique,
		MaxLineSize:    int(maxLine),
		Logger:         log,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := sorter.Sort(ctx, c.Input, c.Output, tempDir)
	if rmErr := os.Remove(tempDir); rmErr != nil && !os.IsNotExist(rmErr) {
		log.WithError(rmErr).WithField("temp_dir", tempDir).Warn("could not remove temp dir")
	}
	if err != nil {
		return err
	}

	size := uint64(0)
	if info, err := os.Stat(c.Output); err == nil {
		size = uint64(info.Size())
	}
	fmt.Printf("sorted %s lines (%s) in %d chunks, %d merge passes, %s\n",
		humanize.Comma(stats.Lines), humanize.IBytes(size), stats.Chunks, stats.MergePasses,
		time.Since(start).Round(time.Millisecond))
	if stats.Malformed > 0 {
		fmt.Printf("%s lines had no numeric id and were sorted as plain text\n", humanize.Comma(stats.Malformed))
	}
	return nil
}

func (c *generateCommand) Execute(args []string) error {
	size, err := humanize.ParseBytes(c.Size)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", c.Size, err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	log.WithFields(logrus.Fields{"output": c.Output, "size": humanize.IBytes(size)}).Info("generating file")
	res, err := generate.GenerateFile(ctx, c.Output, generate.Options{
		Size:    int64(size),
		Workers: c.Workers,
		Seed:    c.Seed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s lines (%s) to %s\n", humanize.Comma(res.Lines), humanize.IBytes(uint64(res.Bytes)), c.Output)
	return nil
}

func (c *checkCommand) Execute(args []string) error {
	n, err := linesort.CheckFile(c.Input)
	if err != nil {
		return err
	}
	fmt.Printf("%s is sorted (%s lines)\n", c.Input, humanize.Comma(int64(n)))
	return nil
}
