// Package reference obtains an independent view of a target's open ports
// from an external scanner. The engine's own results are cross-checked
// against this view to measure accuracy.
//
// The external tool sits behind the Client interface so the rest of the
// program never depends on which scanner produced the reference set. The
// shipped implementation drives nmap, asking it for a connect scan of
// exactly the ports we scanned ourselves so both sides answer the same
// question.
package reference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ullaakut/nmap/v3"
	"gopkg.in/yaml.v3"

	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/metrics"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/scanning"
)

// Timing template names accepted in configuration.
const (
	TimingPolite     = "polite"
	TimingNormal     = "normal"
	TimingAggressive = "aggressive"
)

// DefaultTimeout bounds a whole reference run. nmap decides its own
// per-port pacing from the timing template; this only stops a wedged run.
const DefaultTimeout = 5 * time.Minute

// Client produces a reference scanner's set of open TCP ports for the
// given target, restricted to the scanned port set. Implementations return
// an error only when the tool could not produce a result set at all; an
// empty set is a valid answer.
type Client interface {
	OpenPorts(ctx context.Context, target scanning.Target, set ports.Set) (ports.Set, error)
}

// Config tunes the nmap-backed client.
type Config struct {
	// Timing selects the nmap timing template: polite, normal, or
	// aggressive. Empty means normal.
	Timing string `yaml:"timing" json:"timing"`
	// Timeout bounds the whole reference run.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the default reference configuration.
func DefaultConfig() Config {
	return Config{
		Timing:  TimingNormal,
		Timeout: DefaultTimeout,
	}
}

// UnmarshalYAML accepts Timeout as either a duration string ("5m") or
// raw nanoseconds. Absent keys keep their current values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timing  *string    `yaml:"timing"`
		Timeout *yaml.Node `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Timing != nil {
		c.Timing = *raw.Timing
	}
	if raw.Timeout != nil {
		d, err := decodeDuration(raw.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	return nil
}

// MarshalYAML writes Timeout in duration-string form.
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		Timing  string `yaml:"timing"`
		Timeout string `yaml:"timeout"`
	}{Timing: c.Timing, Timeout: c.Timeout.String()}, nil
}

func decodeDuration(node *yaml.Node) (time.Duration, error) {
	var d time.Duration
	if err := node.Decode(&d); err == nil {
		return d, nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return 0, fmt.Errorf("invalid duration %q", node.Value)
	}
	return time.ParseDuration(s)
}

// NmapClient runs connect scans through the nmap library.
type NmapClient struct {
	timing     nmap.Timing
	timingName string
	timeout    time.Duration
	logger     *logging.Logger
	metrics    *metrics.PrometheusMetrics
}

// NewNmapClient validates cfg and returns a client. The nmap binary itself
// is only looked up when a scan runs; a missing binary surfaces as a
// reference-unavailable error from OpenPorts, not from here.
func NewNmapClient(cfg Config) (*NmapClient, error) {
	timing, err := parseTiming(cfg.Timing)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Timing))
	if name == "" {
		name = TimingNormal
	}

	return &NmapClient{
		timing:     timing,
		timingName: name,
		timeout:    timeout,
		logger:     logging.Default().WithComponent("reference"),
		metrics:    metrics.GetGlobalMetrics(),
	}, nil
}

func parseTiming(name string) (nmap.Timing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TimingNormal:
		return nmap.TimingNormal, nil
	case TimingPolite:
		return nmap.TimingPolite, nil
	case TimingAggressive:
		return nmap.TimingAggressive, nil
	default:
		return 0, errors.NewConfigFieldError(errors.CodeValidation,
			"Unknown reference timing template", "reference.timing", name)
	}
}

// OpenPorts runs nmap against the target and returns the TCP ports it
// reports open within the scanned set. Any failure to produce a result
// set comes back as a reference-unavailable error wrapping the cause.
func (c *NmapClient) OpenPorts(ctx context.Context, target scanning.Target, set ports.Set) (ports.Set, error) {
	if set.Len() == 0 {
		return ports.NewSet(), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.InfoReference("reference scan started", target.String(),
		"ports", set.Len(),
		"timing", c.timingName)

	start := time.Now()
	run, err := c.scan(runCtx, target, set)
	duration := time.Since(start)
	c.metrics.RecordReferenceDuration(duration)

	if err != nil {
		c.metrics.IncrementReferenceRuns("failed")
		return nil, errors.ErrReferenceUnavailable(target.String(), err)
	}

	open, err := resultSet(run, target.String())
	if err != nil {
		c.metrics.IncrementReferenceRuns("failed")
		return nil, err
	}

	c.metrics.IncrementReferenceRuns("completed")
	c.logger.InfoReference("reference scan completed", target.String(),
		"open", open.Len(),
		"duration", duration)

	return open, nil
}

// resultSet validates a completed run and collects its open ports. A run
// with no host records produced nothing to compare against; that is
// distinct from a scanned host with zero open ports.
func resultSet(run *nmap.Run, target string) (ports.Set, error) {
	if len(run.Hosts) == 0 {
		referr := errors.NewReferenceError(errors.CodeReferenceUnavailable, "Reference run reported no hosts")
		referr.Target = target
		return nil, referr
	}
	return extractOpenPorts(run), nil
}

// scan asks nmap for a connect scan of exactly the scanned ports. Host
// discovery is skipped: the target was already resolved, and a ping-blocked
// host would otherwise come back empty instead of scanned.
func (c *NmapClient) scan(ctx context.Context, target scanning.Target, set ports.Set) (*nmap.Run, error) {
	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(target.Addr()),
		nmap.WithPorts(set.Join(",")),
		nmap.WithConnectScan(),
		nmap.WithTimingTemplate(c.timing),
		nmap.WithSkipHostDiscovery(),
	)
	if err != nil {
		return nil, err
	}

	run, warnings, err := scanner.Run()
	if err != nil {
		return nil, err
	}
	if warnings != nil && len(*warnings) > 0 {
		c.logger.Warn("reference scan produced warnings",
			"component", "reference",
			"target", target.String(),
			"warnings", *warnings)
	}

	return run, nil
}

// extractOpenPorts collects every TCP port the run reports open.
func extractOpenPorts(run *nmap.Run) ports.Set {
	open := ports.NewSet()
	for i := range run.Hosts {
		host := &run.Hosts[i]
		for j := range host.Ports {
			p := &host.Ports[j]
			if p.Protocol == "tcp" && p.State.State == "open" {
				open.Add(ports.Port(p.ID))
			}
		}
	}
	return open
}
