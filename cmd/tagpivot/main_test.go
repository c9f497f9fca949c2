// Package main provides tests for the tagpivot CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/tagpivot/internal/cli"
	"github.com/leapstack-labs/tagpivot/internal/cli/config"
)

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "tagpivot") {
		t.Errorf("version output should contain 'tagpivot', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"run", "check", "preview", "version", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	config.ResetConfig()

	input := "project_number,env,cost-center\n1001,prod,cc-9\n1002,,cc-7\n"
	mapping := `{"env": "281479", "cost-center": "281480"}`
	if err := os.WriteFile("tags.csv", []byte(input), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("mapping.json", []byte(mapping), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "tags.csv", "--mapping", "mapping.json", "--output", "text"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run command error = %v\noutput: %s", err, buf.String())
	}

	got, err := os.ReadFile(filepath.Join(tmpDir, "transformed_output.csv"))
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}

	want := "tagkey_id_number,tagkey_name,tagvalue_short_name,project_number\n" +
		"281479,env,prod,1001\n" +
		"281480,cost-center,cc-9,1001\n" +
		"281480,cost-center,cc-7,1002\n"
	if string(got) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}

	if !strings.Contains(buf.String(), "Wrote 3 rows") {
		t.Errorf("run output should report rows written, got: %s", buf.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"explode"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}
