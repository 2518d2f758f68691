// Package testutils locates the bitring binary for CLI tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed

	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// BinaryPath returns the absolute path to the bitring binary.
func BinaryPath() string {
	return filepath.Join(projectRoot(), "bin", "bitring")
}

// Setup creates a test case configured to run the bitring binary.
// The test is skipped when the binary has not been built.
func Setup(t *testing.T) *test.Case {
	t.Helper()

	if _, err := os.Stat(BinaryPath()); err != nil {
		t.Skipf("bitring binary not built (go build -o bin/bitring ./cmd/bitring): %v", err)
	}

	return agar.Setup(BinaryPath())
}
