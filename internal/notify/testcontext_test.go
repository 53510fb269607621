package notify

import (
	"context"
	"sync"
	"testing"
)

// testContextMu and testContexts back testContext, a stand-in for
// testing.T.Context (Go 1.24+) on older toolchains.
var (
	testContextMu sync.Mutex
	testContexts  = map[testing.TB]context.Context{}
)

// testContext returns a per-test context that is canceled when the test's
// cleanups run, mirroring t.Context().
func testContext(t testing.TB) context.Context {
	t.Helper()
	testContextMu.Lock()
	defer testContextMu.Unlock()
	if ctx, ok := testContexts[t]; ok {
		return ctx
	}
	ctx, cancel := context.WithCancel(context.Background())
	testContexts[t] = ctx
	t.Cleanup(func() {
		cancel()
		testContextMu.Lock()
		delete(testContexts, t)
		testContextMu.Unlock()
	})
	return ctx
}
