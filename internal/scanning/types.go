package scanning

import (
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/veriscan/veriscan/internal/ports"
)

// Default engine parameters.
const (
	DefaultWorkers = 100
	DefaultTimeout = time.Second

	// maxWorkers caps the pool so a typo in configuration cannot exhaust
	// file descriptors.
	maxWorkers = 4096
)

// validate checks Config structs; a single instance is safe for concurrent use.
var validate = validator.New()

// ProbeStatus classifies the outcome of a single connect probe.
type ProbeStatus string

const (
	// StatusOpen means the TCP handshake completed within the timeout.
	StatusOpen ProbeStatus = "open"
	// StatusClosed means the target actively refused the connection.
	StatusClosed ProbeStatus = "closed"
	// StatusError covers timeouts, unreachable hosts, resets, and any
	// other network-level failure. For reporting it counts as not-open
	// exactly like StatusClosed; the Reason field keeps it
	// distinguishable for diagnostics.
	StatusError ProbeStatus = "error"
)

// Target is an already-resolved scan destination. Host preserves what the
// user asked for; IP is what probes actually dial. Immutable for the
// duration of a scan.
type Target struct {
	Host string
	IP   string
}

// Addr returns the address probes dial.
func (t Target) Addr() string {
	return t.IP
}

// HostPort returns the dial string for a given port.
func (t Target) HostPort(port ports.Port) string {
	return net.JoinHostPort(t.IP, port.String())
}

// String renders the target for logs and reports.
func (t Target) String() string {
	if t.Host != "" && t.Host != t.IP {
		return fmt.Sprintf("%s (%s)", t.Host, t.IP)
	}
	return t.IP
}

// ProbeResult is the outcome of one probe. Produced once per port per scan
// and immutable after creation.
type ProbeResult struct {
	Port    ports.Port
	Status  ProbeStatus
	Reason  string
	Latency time.Duration
}

// Open reports whether the probe found the port open.
func (r ProbeResult) Open() bool {
	return r.Status == StatusOpen
}

// Config holds the engine parameters for one scan.
type Config struct {
	// Workers is the fixed number of concurrent probes.
	Workers int `yaml:"workers" json:"workers" validate:"gte=1,lte=4096"`
	// Timeout bounds each individual connect attempt.
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Workers: DefaultWorkers,
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// UnmarshalYAML accepts Timeout as either a duration string ("2s",
// "500ms") or raw nanoseconds. Keys absent from the document leave the
// current values untouched so defaults survive partial files.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Workers *int       `yaml:"workers"`
		Timeout *yaml.Node `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Workers != nil {
		c.Workers = *raw.Workers
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
		Workers int    `yaml:"workers"`
		Timeout string `yaml:"timeout"`
	}{Workers: c.Workers, Timeout: c.Timeout.String()}, nil
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

// Stats summarizes per-status probe counts for a finished scan.
type Stats struct {
	Open    int
	Closed  int
	Errored int
	Total   int
}

// ScanResult contains the complete outcome of one scan. It is owned by the
// Run call that produced it and read-only to every consumer afterward.
type ScanResult struct {
	// ID uniquely identifies this scan run.
	ID string
	// Target is the scanned destination.
	Target Target
	// OpenPorts holds every open port in ascending order without
	// duplicates, regardless of probe completion order.
	OpenPorts []ports.Port
	// Results holds every probe outcome in ascending port order.
	Results []ProbeResult
	// Stats summarizes probe outcomes.
	Stats Stats
	// StartTime is when the scan started.
	StartTime time.Time
	// EndTime is when the scan completed.
	EndTime time.Time
	// Duration is how long the scan took.
	Duration time.Duration
}

// OpenSet returns the open ports as a set, the form the comparator consumes.
func (r *ScanResult) OpenSet() ports.Set {
	return ports.NewSet(r.OpenPorts...)
}

// Snapshot is a point-in-time view of a running scan, served through the
// engine's observability hook. Callers needing partial state poll this;
// the final ScanResult is never partially populated.
type Snapshot struct {
	ScanID  string        `json:"scan_id"`
	Target  string        `json:"target"`
	Total   int           `json:"total"`
	Probed  int           `json:"probed"`
	Open    int           `json:"open"`
	Closed  int           `json:"closed"`
	Errored int           `json:"errored"`
	Elapsed time.Duration `json:"elapsed"`
	Running bool          `json:"running"`
}
