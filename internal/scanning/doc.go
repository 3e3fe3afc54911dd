// Package scanning implements the concurrent TCP connect scan engine.
//
// A scan probes every port in a resolved port set against a single target
// using a fixed pool of workers. Each worker completes a full TCP handshake
// per port and classifies the outcome as open, closed, or errored; network
// failures are recorded per port and never abort the scan as a whole.
//
// # Concurrency model
//
// Run wires together three stages connected by channels:
//
//   - a feeder goroutine that sends each port into an unbuffered jobs
//     channel exactly once, stopping early on cancellation
//   - a fixed number of probe workers that drain jobs and emit one
//     ProbeResult per port
//   - the Run call itself, which is the sole collector of results and
//     the only goroutine that touches the accumulating state
//
// Because the collector is single-threaded, open-port aggregation needs no
// locking, and the returned ScanResult is complete and ordered regardless
// of the order in which probes finished.
//
// Cancellation is all-or-nothing: if the context ends before the last probe
// completes, Run discards partial results and returns a scan-aborted error.
// Callers that want live visibility into a running scan use the Progress
// snapshot or register a progress callback instead.
//
// # Basic usage
//
//	engine, err := scanning.NewEngine(scanning.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	result, err := engine.Run(ctx, target, portSet)
//	if err != nil {
//		return err
//	}
//	for _, port := range result.OpenPorts {
//		fmt.Println(port)
//	}
package scanning
