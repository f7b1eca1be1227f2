package cli_test

import (
	"testing"

	"repost.dev/repost/testhelpers"
)

func TestMain(m *testing.M) {
	testhelpers.TestMain(m, nil)
}

// getRepostBinary returns the path to the pre-built repost binary.
func getRepostBinary(t *testing.T) string {
	t.Helper()
	binaryPath := testhelpers.GetSharedBinaryPath()
	if binaryPath == "" {
		if err := testhelpers.GetBinaryError(); err != nil {
			t.Fatalf("failed to build repost binary: %v", err)
		}
		t.Fatal("repost binary not built")
	}
	return binaryPath
}
