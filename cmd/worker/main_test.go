package main

import (
	"testing"

	"github.com/taxi-insights/taxi-insights/internal/app"
	_ "github.com/taxi-insights/taxi-insights/testing"
)

func TestWorkerSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatalf("expected test mode to be enabled")
	}
	main()
}
