package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// TestModeEnv switches the binaries into a no-op under go test.
const TestModeEnv = "SAERP_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return parseTestMode(os.Getenv(TestModeEnv))
})

// InTestMode reports whether main should return before touching Redis, Postgres or
// the network. The environment is read once per process.
func InTestMode() bool {
	return testMode()
}

func parseTestMode(raw string) bool {
	on, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && on
}
