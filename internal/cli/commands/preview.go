package commands

import (
	"fmt"

	"github.com/leapstack-labs/tagpivot/internal/cli/output"
	"github.com/leapstack-labs/tagpivot/internal/engine"
	"github.com/leapstack-labs/tagpivot/internal/unpivot"
	"github.com/spf13/cobra"
)

// defaultPreviewLimit is the number of rows preview shows without --limit.
const defaultPreviewLimit = 20

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Limit int
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview [input.csv]",
		Short: "Show the first transformed rows without writing",
		Long: `Run the transform in memory and print the leading output rows.
No file is written. Use --limit 0 to show every row.`,
		Example: `  # First 20 rows as a table
  tagpivot preview tags.csv -m tag_ids.json

  # Everything, as JSON
  tagpivot preview tags.csv -m tag_ids.json --limit 0 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", defaultPreviewLimit, "Maximum rows to show (0 for all)")

	return cmd
}

func runPreview(cmd *cobra.Command, args []string, opts *PreviewOptions) error {
	cmdCtx := NewCommandContext(cmd)

	eng, err := cmdCtx.NewEngine(args)
	if err != nil {
		return err
	}

	result, err := eng.Preview(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	return renderPreview(cmdCtx.Renderer, result)
}

func renderPreview(r *output.Renderer, result *engine.PreviewResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		rows := result.Rows
		if rows == nil {
			rows = []unpivot.OutputRow{}
		}
		return r.JSON(output.PreviewOutput{
			Rows:  rows,
			Shown: len(rows),
			Total: result.Total,
			Stats: result.Stats,
		})
	}

	if len(result.Rows) == 0 {
		r.Muted("(0 rows)")
		return nil
	}

	records := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		records[i] = row.Record()
	}
	r.Table(unpivot.Header(), records)
	r.Muted(fmt.Sprintf("(%d of %d rows)", len(result.Rows), result.Total))
	return nil
}
