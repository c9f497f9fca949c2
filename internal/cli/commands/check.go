package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tagpivot/internal/cli/output"
	"github.com/leapstack-labs/tagpivot/internal/engine"
	"github.com/leapstack-labs/tagpivot/internal/unpivot"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [input.csv]",
		Short: "Verify that every tag key column has a mapping",
		Long: `Parse the input CSV and the mapping file and report which tag key
columns have no tag id. Nothing is written.

Exits with an error when any tag key is unmapped, so it can gate a pipeline
before running the transform.`,
		Example: `  # Check coverage before running
  tagpivot check tags.csv -m tag_ids.json

  # Machine-readable report
  tagpivot check tags.csv -m tag_ids.json -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)

	eng, err := cmdCtx.NewEngine(args)
	if err != nil {
		return err
	}

	result, err := eng.Check(cmd.Context())
	if err != nil {
		return err
	}

	if err := renderCheck(cmdCtx.Renderer, result); err != nil {
		return err
	}

	if !result.OK() {
		return &unpivot.MissingTagMappingError{Missing: result.Missing}
	}
	return nil
}

func renderCheck(r *output.Renderer, result *engine.CheckResult) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		missing := result.Missing
		if missing == nil {
			missing = []string{}
		}
		tagKeys := result.TagKeys
		if tagKeys == nil {
			tagKeys = []string{}
		}
		return r.JSON(output.CheckOutput{
			OK:               result.OK(),
			Input:            result.InputPath,
			Mapping:          result.MappingPath,
			IdentifierColumn: result.IdentifierColumn,
			TagKeys:          tagKeys,
			MappedKeys:       result.MappedKeys,
			Missing:          missing,
			Rows:             result.Rows,
		})

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Mapping check"))
		r.Println("")
		r.Println(output.FormatKeyValue("Input", output.FormatCode(result.InputPath)))
		r.Println(output.FormatKeyValue("Mapping", output.FormatCode(result.MappingPath)))
		r.Println(output.FormatKeyValue("Identifier column", result.IdentifierColumn))
		r.Println(output.FormatKeyValue("Rows", fmt.Sprintf("%d", result.Rows)))
		r.Println(output.FormatKeyValue("Tag keys", fmt.Sprintf("%d", len(result.TagKeys))))
		r.Println("")
		if result.OK() {
			r.Println("All tag keys are mapped.")
			return nil
		}
		r.Println(output.FormatHeader(2, "Missing mappings"))
		r.Println("")
		r.Printf("%s", output.FormatList(result.Missing))
		return nil

	default:
		r.Header(1, "Mapping check")
		r.KeyValue("Input", result.InputPath)
		r.KeyValue("Mapping", result.MappingPath)
		r.KeyValue("Identifier column", result.IdentifierColumn)
		r.KeyValue("Rows", fmt.Sprintf("%d", result.Rows))
		r.Println("")

		missing := make(map[string]bool, len(result.Missing))
		for _, name := range result.Missing {
			missing[name] = true
		}
		for _, key := range result.TagKeys {
			if missing[key] {
				r.StatusLine(key, "failed", "no tag id")
			} else {
				r.StatusLine(key, "success", "")
			}
		}
		r.Println("")
		if result.OK() {
			r.Success(fmt.Sprintf("All %d tag keys are mapped", len(result.TagKeys)))
		} else {
			r.Muted(fmt.Sprintf("%d of %d tag keys unmapped: %s",
				len(result.Missing), len(result.TagKeys), strings.Join(result.Missing, ", ")))
		}
		return nil
	}
}
