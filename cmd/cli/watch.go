package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriscan/veriscan/internal/compare"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/metrics"
	"github.com/veriscan/veriscan/internal/ports"
	"github.com/veriscan/veriscan/internal/reference"
	"github.com/veriscan/veriscan/internal/report"
	"github.com/veriscan/veriscan/internal/resolve"
	"github.com/veriscan/veriscan/internal/scanning"
	"github.com/veriscan/veriscan/internal/status"
	"github.com/veriscan/veriscan/internal/watch"
)

var (
	watchPortList   string
	watchPortRange  string
	watchCommon     bool
	watchWorkers    int
	watchTimeout    time.Duration
	watchSchedule   string
	watchVerify     bool
	watchStatusAddr string
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch [target]",
	Short: "Periodically rescan a target and report open-port drift",
	Long: `Watch reruns the scan on a schedule and reports which ports appeared
or disappeared since the previous iteration. The first iteration runs
immediately and establishes the baseline; a failed iteration keeps the
previous baseline so transient errors do not show up as drift.

With --verify every iteration is additionally cross-checked against an
nmap scan of the same ports and the accuracy is logged. Watch keeps only
the latest open set in memory and runs until interrupted.`,
	Example: `  # Rescan the common service ports every five minutes
  veriscan watch --common --schedule "@every 5m" example.com

  # Standard cron expression with live status on the side
  veriscan watch --range 1-1024 --schedule "*/10 * * * *" --status-addr 127.0.0.1:9090 10.0.0.5`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchPortList, "ports", "p", "",
		"comma-separated ports to scan (e.g. 22,80,443)")
	watchCmd.Flags().StringVarP(&watchPortRange, "range", "r", "",
		"inclusive port range to scan (e.g. 1-1024)")
	watchCmd.Flags().BoolVarP(&watchCommon, "common", "c", false,
		"scan the built-in set of common service ports")
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", scanning.DefaultWorkers,
		"number of concurrent probe workers")
	watchCmd.Flags().DurationVarP(&watchTimeout, "timeout", "t", scanning.DefaultTimeout,
		"per-probe connect timeout")
	watchCmd.Flags().StringVarP(&watchSchedule, "schedule", "s", "",
		"cron expression or @every interval (default from config)")
	watchCmd.Flags().BoolVar(&watchVerify, "verify", false,
		"cross-check every iteration against nmap and log accuracy")
	watchCmd.Flags().StringVar(&watchStatusAddr, "status-addr", "",
		"serve live scan status on this address (e.g. 127.0.0.1:9090)")

	watchCmd.MarkFlagsMutuallyExclusive("ports", "range", "common")
	watchCmd.MarkFlagsOneRequired("ports", "range", "common")
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	overlayScanFlags(cmd.Flags(), cfg, watchWorkers, watchTimeout)
	if watchSchedule != "" {
		cfg.Watch.Schedule = watchSchedule
	}
	if watchStatusAddr != "" {
		cfg.Status.Enabled = true
		cfg.Status.Addr = watchStatusAddr
	}

	set, err := selectPorts(watchPortList, watchPortRange, watchCommon)
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
	if watchVerify {
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

	runner := func(ctx context.Context) (ports.Set, error) {
		result, err := engine.Run(ctx, target, set)
		if err != nil {
			return nil, err
		}
		open := result.OpenSet()
		if refClient != nil {
			// Verification is advisory: drift always tracks our own
			// scan, and a missing reference only costs the accuracy line.
			refSet, refErr := refClient.OpenPorts(ctx, target, set)
			if refErr != nil {
				logging.WarnReference("Reference scanner unavailable", target.String(), refErr)
			} else {
				agreement := compare.Sets(open, refSet)
				metrics.RecordAccuracy(agreement.Accuracy)
				logging.InfoWatch("reference comparison",
					"accuracy", agreement.Accuracy,
					"matches", len(agreement.Matches),
					"ours_only", len(agreement.OursOnly),
					"theirs_only", len(agreement.TheirsOnly))
			}
		}
		return open, nil
	}

	watcher, err := watch.New(cfg.Watch.Schedule, runner)
	if err != nil {
		fatalf("Invalid watch configuration: %v", err)
	}

	reporter := report.New(os.Stdout)
	reporter.WatchBanner(target, set.Len(), cfg.Watch.Schedule)
	watcher.SetDriftFunc(reporter.Drift)

	// Blocks until the context is canceled by a signal.
	if err := watcher.Start(ctx); err != nil {
		fatalf("Watch failed: %v", err)
	}
}
