// Package engine wires tagpivot's file inputs and outputs around the unpivot
// transform: it loads the source table and tag id mapping, runs the transform,
// and writes the long-format CSV.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/tagpivot/internal/unpivot"
)

// defaultDebounce delays a watch re-run until writes to an input settle.
const defaultDebounce = 100 * time.Millisecond

// Engine runs unpivot jobs against files on disk.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// InputPath is the wide-format CSV to read.
	InputPath string
	// MappingPath is the tag name to tag id mapping file.
	MappingPath string
	// OutputPath is where the long-format CSV is written.
	// Defaults to unpivot.DefaultOutputFile.
	OutputPath string
	// MappingFormat overrides detection from the mapping file extension.
	MappingFormat unpivot.MappingFormat
	// Delimiter of the input CSV (zero means ',').
	Delimiter rune
	// ExpectIDColumn, when set, must match the input's first header.
	ExpectIDColumn string
	// TrimValues trims whitespace around emitted tag values.
	TrimValues bool
	// WatchDebounce is the quiet period before a watch re-run.
	WatchDebounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Inputs are the parsed table and mapping.
type Inputs struct {
	Table   *unpivot.SourceTable
	Mapping unpivot.TagIDMap
}

// RunResult describes a completed run.
type RunResult struct {
	ID         string
	OutputPath string
	Stats      unpivot.Stats
	Duration   time.Duration
}

// CheckResult reports mapping coverage for the input table.
type CheckResult struct {
	InputPath        string
	MappingPath      string
	IdentifierColumn string
	TagKeys          []string
	Missing          []string
	Rows             int
	MappedKeys       int
}

// OK reports whether every tag key column has a mapping.
func (r *CheckResult) OK() bool { return len(r.Missing) == 0 }

// PreviewResult holds the leading rows of a transform.
type PreviewResult struct {
	Rows  []unpivot.OutputRow
	Total int
	Stats unpivot.Stats
}

// New creates an engine. Input and mapping paths are required and the output
// path may not point at either of them.
func New(cfg Config) (*Engine, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("input file is required\nHint: pass it as an argument or use --input")
	}
	if cfg.MappingPath == "" {
		return nil, errors.New("mapping file is required\nHint: use --mapping to point at the tag id mapping")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = unpivot.DefaultOutputFile
	}
	if cfg.MappingFormat == "" {
		cfg.MappingFormat = unpivot.DetectMappingFormat(cfg.MappingPath)
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = defaultDebounce
	}

	if samePath(cfg.OutputPath, cfg.InputPath) || samePath(cfg.OutputPath, cfg.MappingPath) {
		return nil, fmt.Errorf("output path %s would overwrite an input file", cfg.OutputPath)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		"input", cfg.InputPath,
		"mapping", cfg.MappingPath,
		"mapping_format", cfg.MappingFormat,
		"output", cfg.OutputPath)

	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration after defaults were applied.
func (e *Engine) Config() Config { return e.cfg }

// Load reads and parses the input table and the mapping.
func (e *Engine) Load(ctx context.Context) (*Inputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := e.loadTable()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapping, err := e.loadMapping()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("inputs loaded",
		"rows", table.Len(),
		"tag_keys", len(table.TagKeys()),
		"mapped_keys", len(mapping))

	return &Inputs{Table: table, Mapping: mapping}, nil
}

func (e *Engine) loadTable() (*unpivot.SourceTable, error) {
	f, err := os.Open(e.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := unpivot.ReadTable(f, unpivot.ReadOptions{
		Delimiter:      e.cfg.Delimiter,
		ExpectIDColumn: e.cfg.ExpectIDColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.cfg.InputPath, err)
	}
	return table, nil
}

func (e *Engine) loadMapping() (unpivot.TagIDMap, error) {
	f, err := os.Open(e.cfg.MappingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer func() { _ = f.Close() }()

	mapping, err := unpivot.ReadMapping(f, e.cfg.MappingFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.cfg.MappingPath, err)
	}
	return mapping, nil
}

// Run loads the inputs, transforms them, and writes the output file. On any
// error no output file is written and an existing one is left as it was.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With("run_id", runID)

	logger.Debug("starting run")

	in, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := e.transform(in)
	if err != nil {
		logger.Warn("transform failed", "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := writeRowsAtomic(e.cfg.OutputPath, res.Rows); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	logger.Info("run completed",
		"output", e.cfg.OutputPath,
		"rows", res.Stats.EmittedRows,
		"duration", elapsed.Round(time.Millisecond))

	return &RunResult{
		ID:         runID,
		OutputPath: e.cfg.OutputPath,
		Stats:      res.Stats,
		Duration:   elapsed,
	}, nil
}

// Check loads the inputs and reports which tag keys lack a mapping.
func (e *Engine) Check(ctx context.Context) (*CheckResult, error) {
	in, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &CheckResult{
		InputPath:        e.cfg.InputPath,
		MappingPath:      e.cfg.MappingPath,
		IdentifierColumn: in.Table.IdentifierColumn(),
		TagKeys:          in.Table.TagKeys(),
		Missing:          unpivot.MissingMappings(in.Table, in.Mapping),
		Rows:             in.Table.Len(),
		MappedKeys:       len(in.Mapping),
	}, nil
}

// Preview transforms the inputs without writing and returns at most limit
// rows. A limit of zero or less returns every row.
func (e *Engine) Preview(ctx context.Context, limit int) (*PreviewResult, error) {
	in, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := e.transform(in)
	if err != nil {
		return nil, err
	}

	rows := res.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	return &PreviewResult{Rows: rows, Total: len(res.Rows), Stats: res.Stats}, nil
}

func (e *Engine) transform(in *Inputs) (*unpivot.Result, error) {
	res, err := unpivot.TransformWithStats(in.Table, in.Mapping, unpivot.WithTrimValues(e.cfg.TrimValues))
	if err != nil {
		if errors.Is(err, unpivot.ErrMissingTagMapping) {
			return nil, fmt.Errorf("%w\nHint: add the missing tag names to %s", err, e.cfg.MappingPath)
		}
		return nil, err
	}

	if res.Stats.SkippedNoProject > 0 {
		e.logger.Warn("skipped rows without a project identifier",
			"count", res.Stats.SkippedNoProject,
			"column", in.Table.IdentifierColumn())
	}

	return res, nil
}

// samePath reports whether a and b resolve to the same absolute path.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
