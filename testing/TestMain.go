// Package testing switches binaries into test mode when imported by tests,
// so main packages can be exercised without opening listeners or Redis.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TAXI_TEST_MODE", "1")
		if os.Getenv("METRICS_API_URL") == "" {
			_ = os.Setenv("METRICS_API_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be assigned from a test package to force test mode before
// any test runs.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
