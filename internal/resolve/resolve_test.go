package resolve

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriscan/veriscan/internal/errors"
)

func TestNewDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0).timeout)
	assert.Equal(t, DefaultTimeout, New(-time.Second).timeout)
	assert.Equal(t, 2*time.Second, New(2*time.Second).timeout)
}

func TestTargetIPLiteral(t *testing.T) {
	resolver := New(time.Second)

	tests := []string{
		"192.0.2.7",
		"127.0.0.1",
		"::1",
		"2001:db8::1",
	}

	for _, literal := range tests {
		t.Run(literal, func(t *testing.T) {
			target, err := resolver.Target(context.Background(), literal)
			require.NoError(t, err)
			assert.Equal(t, literal, target.Host)
			assert.Equal(t, literal, target.IP)
		})
	}
}

func TestTargetTrimsWhitespace(t *testing.T) {
	resolver := New(time.Second)

	target, err := resolver.Target(context.Background(), "  10.0.0.1  ")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", target.IP)
}

func TestTargetEmptyHost(t *testing.T) {
	resolver := New(time.Second)

	for _, host := range []string{"", "   "} {
		_, err := resolver.Target(context.Background(), host)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
	}
}

func TestTargetLocalhost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping resolution test in short mode")
	}

	resolver := New(2 * time.Second)

	target, err := resolver.Target(context.Background(), "localhost")
	if err != nil {
		t.Skipf("localhost not resolvable in this environment: %v", err)
	}

	assert.Equal(t, "localhost", target.Host)
	require.NotNil(t, net.ParseIP(target.IP))
	assert.True(t, net.ParseIP(target.IP).IsLoopback())
}

func TestTargetUnresolvable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping resolution test in short mode")
	}

	resolver := New(2 * time.Second)

	// .invalid is reserved and never resolves, with or without a reachable
	// nameserver.
	_, err := resolver.Target(context.Background(), "host.invalid")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTargetUnresolvable))
}
