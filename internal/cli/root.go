// Package cli provides the command-line interface for tagpivot.
package cli

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/tagpivot/internal/cli/commands"
	"github.com/leapstack-labs/tagpivot/internal/cli/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tagpivot",
		Short: "tagpivot - wide-to-long tag CSV transformer",
		Long: `tagpivot converts a wide-format tag CSV (one row per project, one column per
tag key) into the long format expected by bulk tag binding tools: one row per
non-empty (tag key, project) cell, with the tag key resolved to its numeric id.

Tag key ids come from a mapping file (JSON, YAML, or a gcloud tag-keys export).`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg)

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./tagpivot.yaml)")
	pf.StringP("input", "i", "", "Wide-format input CSV")
	pf.StringP("mapping", "m", "", "Tag name to tag id mapping file")
	pf.String("out", "", "Output CSV path (default: "+config.DefaultOutputPath+")")
	pf.String("mapping-format", "", "Mapping format (json|yaml|gcloud, default: from file extension)")
	pf.String("delimiter", "", "Input CSV delimiter: a single character or tab|comma|semicolon|pipe")
	pf.String("id-column", "", "Require the first input column to have this header")
	pf.Bool("trim-values", false, "Trim whitespace around tag values")
	pf.BoolP("verbose", "v", false, "Verbose output (debug logging)")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")

	completions := map[string][]string{
		"output":         {"auto", "text", "markdown", "json"},
		"mapping-format": {"json", "yaml", "gcloud"},
		"delimiter":      {"comma", "tab", "semicolon", "pipe"},
		"log-level":      {"debug", "info", "warn", "error"},
		"log-format":     {"text", "json"},
	}
	for flag, values := range completions {
		_ = rootCmd.RegisterFlagCompletionFunc(flag, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		})
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewPreviewCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tagpivot.

To load completions:

Bash:
  $ source <(tagpivot completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tagpivot completion bash > /etc/bash_completion.d/tagpivot
  # macOS:
  $ tagpivot completion bash > $(brew --prefix)/etc/bash_completion.d/tagpivot

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tagpivot completion zsh > "${fpath[1]}/_tagpivot"

Fish:
  $ tagpivot completion fish | source

  # To load completions for each session, execute once:
  $ tagpivot completion fish > ~/.config/fish/completions/tagpivot.fish

PowerShell:
  PS> tagpivot completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
