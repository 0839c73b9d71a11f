package fiber

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// This catches any leaked goroutines from fiber drain goroutines and pool workers.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
