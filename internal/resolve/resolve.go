// Package resolve turns user-supplied destinations into dialable targets.
//
// IP literals pass through untouched. Hostnames are resolved with a direct
// DNS query against the system's configured nameserver first, falling back
// to the standard library resolver, which also covers hosts-file entries
// that never reach a nameserver.
package resolve

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/scanning"
)

// DefaultTimeout bounds one resolution attempt end to end.
const DefaultTimeout = 5 * time.Second

const resolvConfPath = "/etc/resolv.conf"

// Resolver resolves scan destinations. The zero value is not usable; use New.
type Resolver struct {
	timeout time.Duration
	logger  *logging.Logger
}

// New returns a resolver. Non-positive timeouts fall back to the default.
func New(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		timeout: timeout,
		logger:  logging.Default().WithComponent("resolve"),
	}
}

// Target resolves host into a dialable scan target. IPv4 addresses are
// preferred when a name has both families.
func (r *Resolver) Target(ctx context.Context, host string) (scanning.Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return scanning.Target{}, errors.NewScanError(errors.CodeValidation, "Target host must not be empty")
	}

	if ip := net.ParseIP(host); ip != nil {
		return scanning.Target{Host: host, IP: host}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if ip, err := r.queryDNS(ctx, host); err == nil {
		r.logger.Info("resolved target", "host", host, "ip", ip, "source", "dns")
		return scanning.Target{Host: host, IP: ip}, nil
	}

	// The direct query misses hosts-file entries and split-horizon setups
	// the system resolver knows about, so always give it a second opinion.
	ip, err := r.querySystem(ctx, host)
	if err != nil {
		return scanning.Target{}, errors.ErrTargetUnresolvable(host, err)
	}

	r.logger.Info("resolved target", "host", host, "ip", ip, "source", "system")
	return scanning.Target{Host: host, IP: ip}, nil
}

// queryDNS sends A then AAAA questions straight to the first configured
// nameserver.
func (r *Resolver) queryDNS(ctx context.Context, host string) (string, error) {
	config, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return "", err
	}
	if len(config.Servers) == 0 {
		return "", errors.NewScanError(errors.CodeConfiguration, "No nameservers configured")
	}
	server := net.JoinHostPort(config.Servers[0], config.Port)

	client := new(dns.Client)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			return "", err
		}
		if resp.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, answer := range resp.Answer {
			switch record := answer.(type) {
			case *dns.A:
				return record.A.String(), nil
			case *dns.AAAA:
				return record.AAAA.String(), nil
			}
		}
	}

	return "", errors.ErrTargetUnresolvable(host, nil)
}

// querySystem resolves through the standard library, preferring IPv4.
func (r *Resolver) querySystem(ctx context.Context, host string) (string, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", errors.ErrTargetUnresolvable(host, nil)
	}

	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}
