package sift

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bibsift/bibsift/pkg/format"
	"github.com/bibsift/bibsift/pkg/marc"
)

// DefaultLogEvery is the default progress reporting interval, in
// records processed.
const DefaultLogEvery = 10000

// DefaultOutputLimit is the default per-output record limit applied
// when neither the output nor the job config sets one.
const DefaultOutputLimit = 100000

var (
	// ErrNoOutputs indicates a job configured without any outputs.
	ErrNoOutputs = errors.New("job has no outputs")
	// ErrDuplicateOutput indicates two outputs sharing a name, which
	// would collide on the same output directory.
	ErrDuplicateOutput = errors.New("duplicate output name")
	// ErrBadFormat indicates a format that cannot back an output file
	// (missing extension or serializer).
	ErrBadFormat = errors.New("unusable record format")
)

// Config is the full configuration surface of a sift job.
type Config struct {
	// Outputs are evaluated in order for every record; order is
	// visible in the progress log and in retirement timing.
	Outputs []Output

	// BasePath is the directory under which each output gets its own
	// subdirectory named after the output.
	BasePath string

	// LogPath receives the progress log when non-empty. Empty means
	// standard output, unless LogSink overrides both.
	LogPath string

	// LogSink, when non-nil, receives the progress log directly and
	// takes precedence over LogPath.
	LogSink io.Writer

	// LogEvery is the periodic reporting interval in records. Values
	// below 1 disable periodic reporting; the final summary is always
	// emitted.
	LogEvery int

	// MaxPerFile caps records per output file. Values below 1 mean
	// unlimited (one file per output).
	MaxPerFile int

	// DefaultFormat backs outputs without their own format. The zero
	// value resolves to binary MARC.
	DefaultFormat *format.Format

	// DefaultLimit caps outputs without their own limit. Zero resolves
	// to DefaultOutputLimit; negative means unlimited.
	DefaultLimit *int
}

// runOutput is the per-run dispatch state of one configured output.
type runOutput struct {
	spec   Output
	writer *BatchWriter
	limit  int
	count  int
	active bool
}

// Job routes a single forward pass over a record stream into every
// configured output at once. Each record is indexed exactly once; all
// still-active output pipelines are evaluated against that one index,
// matches go to the output's batch writer, and an output retires the
// moment it reaches its limit. The pass stops early once every output
// has retired.
type Job struct {
	cfg           Config
	defaultFormat format.Format
	defaultLimit  int

	log io.Writer
}

// NewJob validates the configuration and returns a runnable job.
// Duplicate or empty output names and formats without an extension or
// serializer are configuration errors, reported here rather than
// mid-run.
func NewJob(cfg Config) (*Job, error) {
	if len(cfg.Outputs) == 0 {
		return nil, ErrNoOutputs
	}

	job := &Job{cfg: cfg, defaultFormat: format.Marc(), defaultLimit: DefaultOutputLimit}

	if cfg.DefaultFormat != nil {
		job.defaultFormat = *cfg.DefaultFormat
	}

	if cfg.DefaultLimit != nil {
		job.defaultLimit = *cfg.DefaultLimit
	}

	seen := make(map[string]struct{}, len(cfg.Outputs))

	for _, out := range cfg.Outputs {
		if out.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrDuplicateOutput)
		}

		if _, dup := seen[out.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateOutput, out.Name)
		}

		seen[out.Name] = struct{}{}

		f := job.resolveFormat(out)
		if f.Extension == "" || f.Serialize == nil {
			return nil, fmt.Errorf("%w: output %q", ErrBadFormat, out.Name)
		}
	}

	return job, nil
}

func (j *Job) resolveFormat(out Output) format.Format {
	if out.Format != nil {
		return *out.Format
	}

	return j.defaultFormat
}

func (j *Job) resolveLimit(out Output) int {
	limit := j.defaultLimit
	if out.Limit != nil {
		limit = *out.Limit
	}

	if limit < 1 {
		return 0
	}

	return limit
}

// Run drives the single pass over src and returns the full map of
// output name to batch writer, retired outputs included, so callers
// can inspect file counts and locations. Any input, output, or
// predicate fault aborts the run; open files are closed best-effort
// with their framing so they stay syntactically valid.
func (j *Job) Run(src marc.Source) (map[string]*BatchWriter, error) {
	closeLog, err := j.openLog()
	if err != nil {
		return nil, err
	}
	defer closeLog()

	runs := make([]*runOutput, 0, len(j.cfg.Outputs))
	writers := make(map[string]*BatchWriter, len(j.cfg.Outputs))

	for _, out := range j.cfg.Outputs {
		run := &runOutput{
			spec: out,
			writer: NewBatchWriter(
				filepath.Join(j.cfg.BasePath, out.Name),
				out.Name,
				j.resolveFormat(out),
				j.cfg.MaxPerFile,
				out.Compress,
			),
			limit:  j.resolveLimit(out),
			active: true,
		}
		runs = append(runs, run)
		writers[out.Name] = run.writer
	}

	// Backstop for error returns; Close is idempotent, so the normal
	// path closing below makes this a no-op.
	defer func() {
		for _, run := range runs {
			_ = run.writer.Close()
		}
	}()

	total, err := j.dispatch(src, runs)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if closeErr := run.writer.Close(); closeErr != nil {
			return nil, closeErr
		}
	}

	j.logf("")
	j.logf("*** FINAL SUMMARY ***")
	j.logState(total, runs)
	j.logf("Done.")
	j.logf("")

	return writers, nil
}

// dispatch is the main loop: one field index per record, every active
// output evaluated against it, retirement applied only after the whole
// record is dispatched.
func (j *Job) dispatch(src marc.Source, runs []*runOutput) (int, error) {
	total := 0
	activeCount := len(runs)

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return total, nil
		}

		if err != nil {
			return total, fmt.Errorf("read record: %w", err)
		}

		idx := marc.IndexRecord(rec)

		var finished []*runOutput

		for _, run := range runs {
			if !run.active {
				continue
			}

			ok, checkErr := run.spec.Pipeline.Check(idx)
			if checkErr != nil {
				return total, fmt.Errorf("evaluate output %q: %w", run.spec.Name, checkErr)
			}

			if !ok {
				continue
			}

			if writeErr := run.writer.Write(rec); writeErr != nil {
				return total, writeErr
			}

			run.count++

			if run.limit > 0 && run.count == run.limit {
				finished = append(finished, run)
			}
		}

		total++

		for _, run := range finished {
			run.active = false
			activeCount--

			// No further records route here; flush framing now.
			if closeErr := run.writer.Close(); closeErr != nil {
				return total, closeErr
			}
		}

		if activeCount == 0 {
			j.logf("Reached limit for all output sets.")

			return total, nil
		}

		if j.cfg.LogEvery > 0 && total%j.cfg.LogEvery == 0 {
			j.logState(total, runs)
		}
	}
}

// openLog resolves the progress sink: explicit sink, log file, or
// standard output. The returned func releases the file sink.
func (j *Job) openLog() (func(), error) {
	if j.cfg.LogSink != nil {
		j.log = j.cfg.LogSink

		return func() {}, nil
	}

	if j.cfg.LogPath == "" {
		j.log = os.Stdout

		return func() {}, nil
	}

	file, err := os.Create(j.cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", j.cfg.LogPath, err)
	}

	j.log = file

	return func() { _ = file.Close() }, nil
}

// logf writes one progress line. Progress logging is best-effort;
// write failures never abort the run.
func (j *Job) logf(line string, args ...any) {
	_, _ = fmt.Fprintf(j.log, line+"\n", args...)
}

func (j *Job) logState(total int, runs []*runOutput) {
	j.logf("=== %d Processed ===", total)

	for _, run := range runs {
		line := fmt.Sprintf("%d \"%s\" records found", run.count, run.spec.Name)
		if run.limit > 0 {
			line += fmt.Sprintf(" (max %d)", run.limit)
		}

		j.logf("%s", line)
	}
}
