package app

import (
	"log/slog"
	"mime"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "TAXI_TEST_MODE"

var (
	testMode       atomic.Bool
	testModeLoaded sync.Once
)

// InTestMode reports whether binaries should return before binding listeners
// or dialing Redis. Any strconv.ParseBool true value in TAXI_TEST_MODE counts.
func InTestMode() bool {
	testModeLoaded.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads TAXI_TEST_MODE.
func RefreshTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}

// Slim container images ship without /etc/mime.types, which leaves the
// embedded assets served as text/plain.
var staticTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
	".svg": "image/svg+xml",
}

var staticTypesOnce sync.Once

func registerStaticTypes(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	staticTypesOnce.Do(func() {
		for ext, typ := range staticTypes {
			if mime.TypeByExtension(ext) != "" {
				continue
			}
			if err := mime.AddExtensionType(ext, typ); err != nil {
				logger.Warn("register static mime type", slog.String("ext", ext), slog.Any("error", err))
			}
		}
	})
}
