package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veriscan/veriscan/internal/compare"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/scanning"
	"github.com/veriscan/veriscan/internal/watch"
)

func testTarget() scanning.Target {
	return scanning.Target{Host: "db.example.com", IP: "192.0.2.10"}
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Banner(testTarget(), 1024, 100, time.Second)

	out := buf.String()
	assert.Contains(t, out, "Scanning db.example.com (192.0.2.10)")
	assert.Contains(t, out, "Ports: 1024")
	assert.Contains(t, out, "workers: 100")
	assert.Contains(t, out, "timeout: 1s")
}

func TestResultWithOpenPorts(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	result := &scanning.ScanResult{
		Target:    testTarget(),
		OpenPorts: []ports.Port{22, 80},
		Stats:     scanning.Stats{Open: 2, Closed: 1, Errored: 0, Total: 3},
		StartTime: start,
		Duration:  1230 * time.Millisecond,
	}

	var buf bytes.Buffer
	New(&buf).Result(result)

	out := buf.String()
	assert.Contains(t, out, "Scan report for db.example.com (192.0.2.10)")
	assert.Contains(t, out, "2026-08-24T10:00:00Z")
	assert.Contains(t, out, "22/tcp")
	assert.Contains(t, out, "ssh")
	assert.Contains(t, out, "80/tcp")
	assert.Contains(t, out, "http")
	assert.Contains(t, out, "3 ports scanned: 2 open, 1 closed, 0 errored")
	assert.NotContains(t, out, "No open ports found")
}

func TestResultNoOpenPorts(t *testing.T) {
	result := &scanning.ScanResult{
		Target:    testTarget(),
		OpenPorts: []ports.Port{},
		Stats:     scanning.Stats{Closed: 5, Total: 5},
		StartTime: time.Now(),
	}

	var buf bytes.Buffer
	New(&buf).Result(result)

	out := buf.String()
	assert.Contains(t, out, "No open ports found.")
	assert.Contains(t, out, "5 ports scanned: 0 open, 5 closed, 0 errored")
}

func TestResultUnknownService(t *testing.T) {
	result := &scanning.ScanResult{
		Target:    testTarget(),
		OpenPorts: []ports.Port{49152},
		Stats:     scanning.Stats{Open: 1, Total: 1},
		StartTime: time.Now(),
	}

	var buf bytes.Buffer
	New(&buf).Result(result)

	assert.Contains(t, buf.String(), "49152/tcp")
	assert.Contains(t, buf.String(), "unknown")
}

func TestErrorDetails(t *testing.T) {
	result := &scanning.ScanResult{
		Target: testTarget(),
		Results: []scanning.ProbeResult{
			{Port: 22, Status: scanning.StatusOpen},
			{Port: 8080, Status: scanning.StatusError, Reason: "timeout"},
			{Port: 9090, Status: scanning.StatusError, Reason: "host unreachable"},
		},
		Stats: scanning.Stats{Open: 1, Errored: 2, Total: 3},
	}

	var buf bytes.Buffer
	New(&buf).ErrorDetails(result)

	out := buf.String()
	assert.Contains(t, out, "Probe errors")
	assert.Contains(t, out, "8080/tcp")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "9090/tcp")
	assert.Contains(t, out, "host unreachable")
	assert.NotContains(t, out, "22/tcp")
}

func TestErrorDetailsSilentWhenClean(t *testing.T) {
	result := &scanning.ScanResult{
		Target: testTarget(),
		Results: []scanning.ProbeResult{
			{Port: 22, Status: scanning.StatusOpen},
		},
		Stats: scanning.Stats{Open: 1, Total: 1},
	}

	var buf bytes.Buffer
	New(&buf).ErrorDetails(result)

	assert.Empty(t, buf.String())
}

func TestComparison(t *testing.T) {
	result := compare.Sets(
		ports.NewSet(22, 80, 8080),
		ports.NewSet(22, 80, 443),
	)

	var buf bytes.Buffer
	New(&buf).Comparison(result)

	out := buf.String()
	assert.Contains(t, out, "Reference comparison")
	assert.Contains(t, out, "22, 80")
	assert.Contains(t, out, "8080")
	assert.Contains(t, out, "443")
	assert.Contains(t, out, "Accuracy: 66.7% (2/3 matched)")
}

func TestComparisonPerfectAgreement(t *testing.T) {
	result := compare.Sets(ports.NewSet(443), ports.NewSet(443))

	var buf bytes.Buffer
	New(&buf).Comparison(result)

	out := buf.String()
	assert.Contains(t, out, "Accuracy: 100.0% (1/1 matched)")
	assert.Contains(t, out, "(none)")
}

func TestReferenceUnavailable(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).ReferenceUnavailable(assert.AnError)

	assert.Contains(t, buf.String(), "Reference comparison skipped")
}

func TestWatchBanner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).WatchBanner(testTarget(), 1024, "@every 5m")

	out := buf.String()
	assert.Contains(t, out, "Watching db.example.com (192.0.2.10)")
	assert.Contains(t, out, "1024 ports")
	assert.Contains(t, out, `"@every 5m"`)
}

func TestDriftBaseline(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Drift(watch.Drift{
		Iteration: 1,
		Baseline:  true,
		Open:      []ports.Port{22, 80},
		At:        time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "2026-08-24T10:00:00Z")
	assert.Contains(t, out, "iteration 1")
	assert.Contains(t, out, "baseline 2 open: 22, 80")
}

func TestDriftChanged(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Drift(watch.Drift{
		Iteration:   2,
		Open:        []ports.Port{22, 443},
		Appeared:    []ports.Port{443},
		Disappeared: []ports.Port{80},
		At:          time.Now(),
	})

	out := buf.String()
	assert.Contains(t, out, "appeared: 443")
	assert.Contains(t, out, "disappeared: 80")
	assert.Contains(t, out, "now 2 open")
}

func TestDriftNoChange(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Drift(watch.Drift{
		Iteration: 3,
		Open:      []ports.Port{22},
		At:        time.Now(),
	})

	out := buf.String()
	assert.Contains(t, out, "no change, 1 open")
	assert.NotContains(t, out, "appeared")
}

func TestServices(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Services()

	out := buf.String()
	assert.Contains(t, out, "22/tcp")
	assert.Contains(t, out, "ssh")
	assert.Contains(t, out, "443/tcp")
	assert.Contains(t, out, "https")
	assert.Contains(t, out, "services known")
}
