// Package testing switches the binaries into test mode when imported by tests.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/odyssey-pos/odyssey-pos/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
