package commands

import (
	"log/slog"

	"github.com/leapstack-labs/tagpivot/internal/cli/config"
	"github.com/leapstack-labs/tagpivot/internal/cli/output"
	"github.com/leapstack-labs/tagpivot/internal/engine"
	"github.com/leapstack-labs/tagpivot/internal/unpivot"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the config and logger the
// root command stored on the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewEngine creates an engine from the configuration. A positional argument,
// when given, replaces the configured input file.
func (c *CommandContext) NewEngine(args []string) (*engine.Engine, error) {
	return createEngine(c.Cfg, c.Logger, args)
}

// Helper functions shared across commands

func createEngine(cfg *config.Config, logger *slog.Logger, args []string) (*engine.Engine, error) {
	format, err := unpivot.ParseMappingFormat(cfg.MappingFormat)
	if err != nil {
		return nil, err
	}

	input := cfg.InputPath
	if len(args) > 0 && args[0] != "" {
		input = args[0]
	}

	engineCfg := engine.Config{
		InputPath:      input,
		MappingPath:    cfg.MappingPath,
		OutputPath:     cfg.OutputPath,
		MappingFormat:  format,
		Delimiter:      cfg.Delimiter,
		ExpectIDColumn: cfg.IDColumn,
		TrimValues:     cfg.TrimValues,
		Logger:         logger,
	}

	return engine.New(engineCfg)
}
