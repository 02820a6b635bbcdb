// Package cli provides the interactive porterias operator console.
//
// The operator logs in through the session gate, then publishes, unpublishes
// and lists strips through the configured backend. Every failure is printed
// with common.Describe so that nothing reads like a success.
//
// The REPL is started via App.Root(ctx), which blocks until the operator
// exits or input ends.
package cli
