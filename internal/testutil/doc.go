// Package testutil provides shared test utilities and moq-generated mocks.
//
// Mocks are generated using moq (github.com/matryer/moq) and can be regenerated with:
//
//	go generate ./...
//
// Each mock is generated from the interface definition in its source package.
// The mocks use function-field style, allowing tests to customize behavior per-test:
//
//	mock := &testutil.AgentControlMock{
//	    MergeFunc: func(ctx context.Context, prNumber int, method string) error {
//	        return nil
//	    },
//	}
//
// MemoryStore is an in-memory stand-in for the SQLite store, and Harness wires
// an engine to a scriptable fake code host.
package testutil
