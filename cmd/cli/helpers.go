package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/veriscan/veriscan/internal/config"
	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/services"
)

// loadConfig loads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.ConfigFileUsed())
}

// overlayScanFlags applies explicitly set scan flags over the loaded
// configuration. Flags left at their defaults keep the config values.
func overlayScanFlags(flags *pflag.FlagSet, cfg *config.Config, workers int, timeout time.Duration) {
	if flags.Changed("workers") {
		cfg.Scan.Workers = workers
	}
	if flags.Changed("timeout") {
		cfg.Scan.Timeout = timeout
	}
}

// selectPorts builds the port set chosen by the mutually exclusive
// --ports, --range and --common flags.
func selectPorts(portList, portRange string, common bool) (ports.Set, error) {
	switch {
	case portList != "":
		return ports.ParseList(portList)
	case portRange != "":
		return ports.ParseRange(portRange)
	case common:
		return services.Ports(), nil
	default:
		return nil, errors.NewScanError(errors.CodeValidation,
			"One of --ports, --range or --common must be provided")
	}
}

// fatalf prints a formatted message to stderr and exits with a failure code.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitError)
}
