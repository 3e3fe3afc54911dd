package scanning

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/veriscan/veriscan/internal/ports"
)

// Prober performs one connect attempt against one port. Implementations
// must be safe for concurrent use; the engine calls Probe from every worker.
type Prober interface {
	Probe(ctx context.Context, target Target, port ports.Port) ProbeResult
}

// TCPProber probes by completing a full TCP handshake. A successful
// connection is closed immediately; the handshake outcome is the only
// information a connect scan needs, so no connection outlives its probe.
type TCPProber struct {
	timeout time.Duration
	dialer  *net.Dialer
}

// NewTCPProber returns a prober whose connect attempts are bounded by
// timeout. Non-positive timeouts fall back to the default.
func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPProber{
		timeout: timeout,
		dialer:  &net.Dialer{},
	}
}

// Probe dials the target port and classifies the outcome. It never returns
// an error: every failure mode becomes a ProbeResult so one bad port cannot
// abort a scan.
func (p *TCPProber) Probe(ctx context.Context, target Target, port ports.Port) ProbeResult {
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp", target.HostPort(port))
	latency := time.Since(start)

	if err == nil {
		_ = conn.Close()
		return ProbeResult{Port: port, Status: StatusOpen, Latency: latency}
	}

	status, reason := classifyDialError(err)
	return ProbeResult{Port: port, Status: status, Reason: reason, Latency: latency}
}

// classifyDialError maps a dial failure onto a probe status. Refusal is the
// one signal that proves a host answered with nothing listening; everything
// else is an error with the cause preserved for diagnostics.
func classifyDialError(err error) (ProbeStatus, string) {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return StatusClosed, "connection refused"
	case errors.Is(err, context.DeadlineExceeded):
		return StatusError, "timeout"
	case errors.Is(err, context.Canceled):
		return StatusError, "canceled"
	case errors.Is(err, syscall.EHOSTUNREACH):
		return StatusError, "host unreachable"
	case errors.Is(err, syscall.ENETUNREACH):
		return StatusError, "network unreachable"
	case errors.Is(err, syscall.ECONNRESET):
		return StatusError, "connection reset"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusError, "timeout"
	}

	return StatusError, err.Error()
}
