package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/logger"
	"github.com/kailas-cloud/catalog-query/internal/metrics"
)

const labelLen = 5

// NewLabel returns a random lowercase label used in default output file names.
func NewLabel() string {
	b := make([]byte, labelLen)
	for i := range b {
		b[i] = byte('a' + rand.IntN(26)) //nolint:gosec // file name label, not a secret
	}
	return string(b)
}

// Paths are the files a run may write.
type Paths struct {
	Results string
	Errors  string
	Log     string
}

var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

// safeDirName turns an organization display name into a single path element.
func safeDirName(org string) string {
	name := pathSeparators.Replace(strings.TrimSpace(org))
	if name == "." || name == ".." {
		return "_"
	}
	return name
}

// DefaultPaths builds output paths under a directory named after the organization,
// or in the working directory when there is none.
func DefaultPaths(action Action, org, label, ext string) Paths {
	org = safeDirName(org)
	if org == "" {
		return Paths{
			Results: fmt.Sprintf("%s_%s.%s", action, label, ext),
			Errors:  fmt.Sprintf("%s_error_%s.%s", action, label, ext),
			Log:     fmt.Sprintf("%s.log", action),
		}
	}
	return Paths{
		Results: filepath.Join(org, fmt.Sprintf("%s_%s_%s.%s", org, action, label, ext)),
		Errors:  filepath.Join(org, fmt.Sprintf("%s_error_%s_%s.%s", org, action, label, ext)),
		Log:     filepath.Join(org, fmt.Sprintf("%s.log", action)),
	}
}

// RunOptions configures OpenRun.
type RunOptions struct {
	Action       Action
	Organization string
	// Ext is the report file extension, e.g. "csv".
	Ext string
	// Output and ErrorOutput override the default report paths when set.
	Output      string
	ErrorOutput string
	// Label overrides the random file name label.
	Label string
}

// Run is the state scoped to one execution: identity, output paths, the run
// logger and the metrics registry. Close must be called on every exit path.
type Run struct {
	ID           string
	Action       Action
	Organization string
	StartedAt    time.Time
	Paths        Paths

	Logger  *zap.Logger
	Metrics *metrics.Run

	runLogger *logger.RunLogger
}

// OpenRun creates the output directories and the run log file.
// Directory failures wrap domain.ErrOutputDir.
func OpenRun(base *zap.Logger, opts RunOptions) (*Run, error) {
	if base == nil {
		base = zap.NewNop()
	}
	label := opts.Label
	if label == "" {
		label = NewLabel()
	}
	ext := opts.Ext
	if ext == "" {
		ext = "csv"
	}

	paths := DefaultPaths(opts.Action, opts.Organization, label, ext)
	if opts.Output != "" {
		paths.Results = opts.Output
		paths.Log = filepath.Join(filepath.Dir(opts.Output), opts.Action.String()+".log")
	}
	if opts.ErrorOutput != "" {
		paths.Errors = opts.ErrorOutput
	}

	for _, dir := range uniqueDirs(paths.Results, paths.Errors, paths.Log) {
		if err := ensureDir(dir, base); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	rl, err := logger.NewRunLogger(base.With(zap.String("run_id", id)), paths.Log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOutputDir, err)
	}

	return &Run{
		ID:           id,
		Action:       opts.Action,
		Organization: opts.Organization,
		StartedAt:    time.Now(),
		Paths:        paths,
		Logger:       rl.Logger,
		Metrics:      metrics.NewRun(),
		runLogger:    rl,
	}, nil
}

// Close flushes and releases the run log.
func (r *Run) Close() error {
	if r == nil || r.runLogger == nil {
		return nil
	}
	return r.runLogger.Close()
}

func uniqueDirs(paths ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if d == "." {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// ensureDir creates dir. An existing directory is reported as a warning only.
func ensureDir(dir string, log *zap.Logger) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		log.Warn("Output directory already exists", zap.String("dir", dir))
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s is not a directory", domain.ErrOutputDir, dir)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", domain.ErrOutputDir, dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrOutputDir, dir, err)
	}
	return nil
}
