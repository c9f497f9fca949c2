package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/tagpivot/internal/cli/config"
	"github.com/leapstack-labs/tagpivot/internal/cli/output"
	"github.com/leapstack-labs/tagpivot/internal/cli/testutil"
	"github.com/leapstack-labs/tagpivot/internal/unpivot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args from a clean working directory.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_RunWithFlags(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(t.TempDir())
	out := filepath.Join(dir, "long.csv")

	stdout, _, err := runCLI(t, "run",
		"-i", filepath.Join(dir, testutil.InputFile),
		"-m", filepath.Join(dir, testutil.MappingFile),
		"--out", out,
		"-o", "json")
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestOutputCSV, string(got))

	var res output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, out, res.Output)
	assert.Equal(t, 4, res.Stats.EmittedRows)
}

func TestRootCmd_UnpivotAliasWritesDefaultOutput(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	stdout, _, err := runCLI(t, "unpivot", testutil.InputFile, "-m", testutil.MappingFile)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, unpivot.DefaultOutputFile))
	require.NoError(t, err)
	assert.Equal(t, testutil.TestOutputCSV, string(got))

	// Buffers are not terminals, so auto mode renders Markdown.
	assert.Contains(t, stdout, "# Unpivot complete")
	testutil.AssertNoANSI(t, stdout)
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "tagpivot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
input: tags.csv
mapping: tag_ids.json
out: build/long.csv
output: json
`), 0644))
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "run", "--config", cfgPath)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "build", "long.csv"))
	require.NoError(t, err)
	assert.Equal(t, testutil.TestOutputCSV, string(got))
}

func TestRootCmd_EnvMapping(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)
	t.Setenv("TAGPIVOT_MAPPING", testutil.MappingFile)
	t.Setenv("TAGPIVOT_OUTPUT", "json")

	stdout, _, err := runCLI(t, "check", testutil.InputFile)
	require.NoError(t, err)

	var res output.CheckOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.OK)
}

func TestRootCmd_TabDelimitedWithTrim(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("tags.tsv", []byte("project_number\tenv\n42\t  prod \n"), 0644))
	require.NoError(t, os.WriteFile("ids.yaml", []byte("env: 7\n"), 0644))

	_, _, err := runCLI(t, "run", "tags.tsv", "-m", "ids.yaml", "--delimiter", "tab", "--trim-values")
	require.NoError(t, err)

	got, err := os.ReadFile(unpivot.DefaultOutputFile)
	require.NoError(t, err)
	assert.Equal(t, "tagkey_id_number,tagkey_name,tagvalue_short_name,project_number\n7,env,prod,42\n", string(got))
}

func TestRootCmd_MissingMappingFails(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(testutil.MappingFile, []byte(`{"env": "1001"}`), 0644))

	_, _, err := runCLI(t, "run", testutil.InputFile, "-m", testutil.MappingFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, unpivot.ErrMissingTagMapping))

	_, statErr := os.Stat(unpivot.DefaultOutputFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestRootCmd_OutputFormatAliases(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	stdout, _, err := runCLI(t, "check", testutil.InputFile, "-m", testutil.MappingFile, "-o", "JSON")
	require.NoError(t, err)
	var res output.CheckOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.OK)

	stdout, _, err = runCLI(t, "check", testutil.InputFile, "-m", testutil.MappingFile, "-o", "md")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Mapping check")
}

func TestRootCmd_Version(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tagpivot v"+Version)

	stdout, _, err = runCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tagpivot "+Version)
}

func TestRootCmd_VerboseLogsToStderr(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	stdout, stderr, err := runCLI(t, "run", testutil.InputFile, "-m", testutil.MappingFile, "-v", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"run completed"`)
	assert.Contains(t, stderr, `"run_id"`)
	assert.NotContains(t, stdout, "run completed")
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := runCLI(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "tagpivot")
		})
	}

	_, _, err := runCLI(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "check", "preview", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	for _, flag := range []string{"config", "input", "mapping", "out", "mapping-format", "delimiter", "id-column", "trim-values", "verbose", "output", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
}
