// Package report renders scan outcomes for humans. All output goes to the
// writer the caller hands in; nothing here touches global state, so the
// same renderer drives both terminal output and tests.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/veriscan/veriscan/internal/compare"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/scanning"
	"github.com/veriscan/veriscan/internal/services"
	"github.com/veriscan/veriscan/internal/watch"
)

// Writer renders report sections to a single destination.
type Writer struct {
	out io.Writer
}

// New returns a report writer that renders to out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Banner prints the scan header before probing starts.
func (w *Writer) Banner(target scanning.Target, portCount, workers int, timeout time.Duration) {
	fmt.Fprintf(w.out, "Scanning %s\n", target)
	fmt.Fprintf(w.out, "Ports: %d, workers: %d, timeout: %v\n\n", portCount, workers, timeout)
}

// Result prints the open-port table and summary for a completed scan.
func (w *Writer) Result(result *scanning.ScanResult) {
	fmt.Fprintf(w.out, "Scan report for %s\n", result.Target)
	fmt.Fprintf(w.out, "Started: %s\n", result.StartTime.Format(time.RFC3339))
	fmt.Fprintf(w.out, "Duration: %v\n\n", result.Duration)

	if len(result.OpenPorts) == 0 {
		fmt.Fprintln(w.out, "No open ports found.")
	} else {
		table := tablewriter.NewWriter(w.out)
		table.Header("Port", "Service")
		for _, port := range result.OpenPorts {
			_ = table.Append([]string{
				fmt.Sprintf("%d/tcp", port),
				services.Lookup(port),
			})
		}
		_ = table.Render()
	}

	fmt.Fprintf(w.out, "\n%d ports scanned: %d open, %d closed, %d errored\n",
		result.Stats.Total, result.Stats.Open, result.Stats.Closed, result.Stats.Errored)
}

// ErrorDetails prints one row per errored probe. Errored ports count as
// not open in the summary; this section is the only place their causes
// show up, and it prints nothing when every probe succeeded.
func (w *Writer) ErrorDetails(result *scanning.ScanResult) {
	if result.Stats.Errored == 0 {
		return
	}

	fmt.Fprintf(w.out, "\nProbe errors\n")
	table := tablewriter.NewWriter(w.out)
	table.Header("Port", "Reason")
	for _, probe := range result.Results {
		if probe.Status != scanning.StatusError {
			continue
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d/tcp", probe.Port),
			probe.Reason,
		})
	}
	_ = table.Render()
}

// Comparison prints the agreement section for a verified scan.
func (w *Writer) Comparison(result compare.Result) {
	fmt.Fprintf(w.out, "\nReference comparison\n")

	table := tablewriter.NewWriter(w.out)
	table.Header("", "Ports")
	_ = table.Append([]string{"Matches", formatPorts(result.Matches)})
	_ = table.Append([]string{"Ours only", formatPorts(result.OursOnly)})
	_ = table.Append([]string{"Reference only", formatPorts(result.TheirsOnly)})
	_ = table.Render()

	fmt.Fprintf(w.out, "Accuracy: %.1f%% (%d/%d matched)\n",
		result.AccuracyPercent(), len(result.Matches), len(result.Theirs))
}

// ReferenceUnavailable notes that verification was requested but the
// reference scanner produced nothing to compare against.
func (w *Writer) ReferenceUnavailable(err error) {
	fmt.Fprintf(w.out, "\nReference comparison skipped: %v\n", err)
}

// WatchBanner prints the header line for a watch session.
func (w *Writer) WatchBanner(target scanning.Target, portCount int, schedule string) {
	fmt.Fprintf(w.out, "Watching %s: %d ports on schedule %q\n", target, portCount, schedule)
}

// Drift prints one watch iteration. The baseline iteration lists the full
// open set; later iterations only call out what changed.
func (w *Writer) Drift(d watch.Drift) {
	stamp := d.At.Format(time.RFC3339)
	switch {
	case d.Baseline:
		fmt.Fprintf(w.out, "[%s] iteration %d: baseline %d open: %s\n",
			stamp, d.Iteration, len(d.Open), formatPorts(d.Open))
	case !d.Changed():
		fmt.Fprintf(w.out, "[%s] iteration %d: no change, %d open\n",
			stamp, d.Iteration, len(d.Open))
	default:
		fmt.Fprintf(w.out, "[%s] iteration %d: appeared: %s, disappeared: %s, now %d open\n",
			stamp, d.Iteration, formatPorts(d.Appeared), formatPorts(d.Disappeared), len(d.Open))
	}
}

// Services prints every known port-to-service mapping in port order.
func (w *Writer) Services() {
	table := tablewriter.NewWriter(w.out)
	table.Header("Port", "Service")
	for _, svc := range services.Known() {
		_ = table.Append([]string{
			fmt.Sprintf("%d/tcp", svc.Port),
			svc.Name,
		})
	}
	_ = table.Render()

	fmt.Fprintf(w.out, "%d services known; everything else reports as %q\n",
		services.Count(), services.Unknown)
}

func formatPorts(list []ports.Port) string {
	if len(list) == 0 {
		return "(none)"
	}

	parts := make([]string, len(list))
	for i, port := range list {
		parts[i] = port.String()
	}
	return strings.Join(parts, ", ")
}
