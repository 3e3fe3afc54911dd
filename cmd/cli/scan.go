package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/veriscan/veriscan/internal/compare"
	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/metrics"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/reference"
	"github.com/veriscan/veriscan/internal/report"
	"github.com/veriscan/veriscan/internal/resolve"
	"github.com/veriscan/veriscan/internal/scanning"
	"github.com/veriscan/veriscan/internal/status"
)

var (
	scanPortList   string
	scanPortRange  string
	scanCommon     bool
	scanWorkers    int
	scanTimeout    time.Duration
	scanVerify     bool
	scanStatusAddr string
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [target]",
	Short: "Scan a target for open TCP ports",
	Long: `Scan probes the selected ports on a single target using full TCP
connect attempts and reports which ports accepted a connection.

Exactly one of --ports, --range or --common selects the ports to probe.
With --verify the same ports are scanned by nmap in parallel and the
two result sets are compared, yielding an accuracy score.`,
	Example: `  # Scan specific ports
  veriscan scan --ports 22,80,443 example.com

  # Scan a range with more workers and a tighter timeout
  veriscan scan --range 1-1024 --workers 200 --timeout 500ms 10.0.0.5

  # Scan the common service ports and cross-check against nmap
  veriscan scan --common --verify example.com`,
	Args: cobra.ExactArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanPortList, "ports", "p", "",
		"comma-separated ports to scan (e.g. 22,80,443)")
	scanCmd.Flags().StringVarP(&scanPortRange, "range", "r", "",
		"inclusive port range to scan (e.g. 1-1024)")
	scanCmd.Flags().BoolVarP(&scanCommon, "common", "c", false,
		"scan the built-in set of common service ports")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", scanning.DefaultWorkers,
		"number of concurrent probe workers")
	scanCmd.Flags().DurationVarP(&scanTimeout, "timeout", "t", scanning.DefaultTimeout,
		"per-probe connect timeout")
	scanCmd.Flags().BoolVar(&scanVerify, "verify", false,
		"cross-check results against nmap and report accuracy")
	scanCmd.Flags().StringVar(&scanStatusAddr, "status-addr", "",
		"serve live scan status on this address (e.g. 127.0.0.1:9090)")

	scanCmd.MarkFlagsMutuallyExclusive("ports", "range", "common")
	scanCmd.MarkFlagsOneRequired("ports", "range", "common")
}

func runScan(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	overlayScanFlags(cmd.Flags(), cfg, scanWorkers, scanTimeout)
	if scanStatusAddr != "" {
		cfg.Status.Enabled = true
		cfg.Status.Addr = scanStatusAddr
	}

	set, err := selectPorts(scanPortList, scanPortRange, scanCommon)
	if err != nil {
		fatalf("Invalid port specification: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := resolve.New(cfg.Resolve.Timeout)
	target, err := resolver.Target(ctx, args[0])
	if err != nil {
		fatalf("Cannot resolve target: %v", err)
	}

	engine, err := scanning.NewEngine(cfg.Scan)
	if err != nil {
		fatalf("Invalid scan configuration: %v", err)
	}

	var refClient reference.Client
	if scanVerify {
		client, err := reference.NewNmapClient(cfg.Reference)
		if err != nil {
			fatalf("Invalid reference configuration: %v", err)
		}
		refClient = client
	}

	if cfg.IsStatusEnabled() {
		srv := status.New(cfg.GetStatusAddress(), engine.Progress)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.ErrorStatus("Status server failed", err)
			}
		}()
	}

	reporter := report.New(os.Stdout)
	reporter.Banner(target, set.Len(), cfg.Scan.Workers, cfg.Scan.Timeout)

	var (
		result *scanning.ScanResult
		refSet ports.Set
		refErr error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		r, err := engine.Run(groupCtx, target, set)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if refClient != nil {
		group.Go(func() error {
			// An unavailable reference downgrades to a warning; it must
			// not take the scan down with it.
			open, err := refClient.OpenPorts(groupCtx, target, set)
			if err != nil {
				refErr = err
				return nil
			}
			refSet = open
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if errors.IsCode(err, errors.CodeScanAborted) && ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Scan aborted.")
			os.Exit(exitInterrupted)
		}
		fatalf("Scan failed: %v", err)
	}

	reporter.Result(result)
	if verbose {
		reporter.ErrorDetails(result)
	}

	if refClient != nil {
		if refErr != nil {
			logging.WarnReference("Reference scanner unavailable", target.String(), refErr)
			reporter.ReferenceUnavailable(refErr)
		} else {
			agreement := compare.Sets(result.OpenSet(), refSet)
			metrics.RecordAccuracy(agreement.Accuracy)
			reporter.Comparison(agreement)
		}
	}
}
