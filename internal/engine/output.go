package engine

// output.go - atomic output file writing

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/tagpivot/internal/unpivot"
)

// writeRowsAtomic writes rows to a temporary file next to path and renames it
// into place, so readers never observe a partially written output.
func writeRowsAtomic(path string, rows []unpivot.OutputRow) (err error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// keep the permissions of an output being replaced
	mode := os.FileMode(0644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = unpivot.WriteRows(bw, rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set output file permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}
