package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leapstack-labs/tagpivot/internal/cli/output"
	"github.com/leapstack-labs/tagpivot/internal/engine"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Watch bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [input.csv]",
		Short: "Unpivot a wide tag CSV into long format",
		Long: `Read a wide-format CSV (one row per project, one column per tag key),
resolve every tag key to its numeric id via the mapping file, and write one
output row per non-empty tag value.

The output file is only written when the whole transform succeeds. If any tag
key column has no entry in the mapping, nothing is written and the missing
names are reported.`,
		Example: `  # Unpivot tags.csv with a JSON mapping
  tagpivot run tags.csv --mapping tag_ids.json

  # Write somewhere other than transformed_output.csv
  tagpivot run tags.csv -m tag_ids.json --out build/tags_long.csv

  # Use a gcloud tag-keys export as the mapping
  tagpivot run tags.csv -m keys.json --mapping-format gcloud

  # Re-run whenever the input or the mapping changes
  tagpivot run tags.csv -m tag_ids.json --watch

  # JSON summary for CI
  tagpivot run tags.csv -m tag_ids.json -o json`,
		Aliases: []string{"unpivot"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the input or mapping file changes")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cmdCtx := NewCommandContext(cmd)

	eng, err := cmdCtx.NewEngine(args)
	if err != nil {
		return err
	}

	if opts.Watch {
		return runWatch(cmd.Context(), cmdCtx, eng)
	}

	result, err := eng.Run(cmd.Context())
	if err != nil {
		return err
	}

	return renderRunResult(cmdCtx.Renderer, eng.Config(), result)
}

// runWatch re-runs until interrupted. Failed runs are reported and watching
// continues.
func runWatch(parent context.Context, cmdCtx *CommandContext, eng *engine.Engine) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cmdCtx.Renderer
	cfg := eng.Config()
	if r.EffectiveMode() != output.ModeJSON {
		r.Println(r.Styles().Info.Render(fmt.Sprintf("Watching %s and %s (Ctrl+C to stop)", cfg.InputPath, cfg.MappingPath)))
	}

	return eng.Watch(ctx, func(result *engine.RunResult, err error) {
		if err == nil {
			_ = renderRunEvent(r, cfg, result)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if r.EffectiveMode() == output.ModeJSON {
			_ = r.JSONLine(runOutput(cfg, nil, err))
			return
		}
		r.Error(err.Error())
	})
}

func runOutput(cfg engine.Config, result *engine.RunResult, err error) output.RunOutput {
	out := output.RunOutput{
		Status:    "success",
		Input:     cfg.InputPath,
		Mapping:   cfg.MappingPath,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		out.Status = "failed"
		out.Error = err.Error()
		return out
	}
	out.RunID = result.ID
	out.Output = result.OutputPath
	out.Stats = result.Stats
	out.DurationMS = result.Duration.Milliseconds()
	return out
}

// renderRunEvent renders one watch iteration. JSON mode emits one line per run.
func renderRunEvent(r *output.Renderer, cfg engine.Config, result *engine.RunResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSONLine(runOutput(cfg, result, nil))
	}
	r.StatusLine(time.Now().Format(time.TimeOnly), "success",
		fmt.Sprintf("%d rows written to %s", result.Stats.EmittedRows, result.OutputPath))
	return nil
}

func renderRunResult(r *output.Renderer, cfg engine.Config, result *engine.RunResult) error {
	stats := result.Stats

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(runOutput(cfg, result, nil))

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Unpivot complete"))
		r.Println("")
		r.Println(output.FormatKeyValue("Run", result.ID))
		r.Println(output.FormatKeyValue("Input", output.FormatCode(cfg.InputPath)))
		r.Println(output.FormatKeyValue("Mapping", output.FormatCode(cfg.MappingPath)))
		r.Println(output.FormatKeyValue("Output", output.FormatCode(result.OutputPath)))
		r.Println(output.FormatKeyValue("Source rows", fmt.Sprintf("%d", stats.SourceRows)))
		r.Println(output.FormatKeyValue("Tag keys", fmt.Sprintf("%d", stats.TagKeys)))
		r.Println(output.FormatKeyValue("Rows written", fmt.Sprintf("%d", stats.EmittedRows)))
		if skipped := stats.SkippedBlankRows + stats.SkippedNoProject; skipped > 0 {
			r.Println(output.FormatKeyValue("Rows skipped", fmt.Sprintf("%d", skipped)))
		}
		return nil

	default:
		styles := r.Styles()
		r.Success(fmt.Sprintf("Wrote %d rows to %s", stats.EmittedRows, styles.Path.Render(result.OutputPath)))
		r.Muted(fmt.Sprintf("  %d source rows, %d tag keys, %d empty cells, completed in %s",
			stats.SourceRows, stats.TagKeys, stats.EmptyCells, result.Duration.Round(time.Millisecond)))
		if stats.SkippedBlankRows > 0 || stats.SkippedNoProject > 0 {
			r.Warning(fmt.Sprintf("skipped %d blank rows and %d rows without a project id",
				stats.SkippedBlankRows, stats.SkippedNoProject))
		}
		return nil
	}
}
