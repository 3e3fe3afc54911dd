// Package cli provides command-line interface commands for the veriscan port
// scanner. This package implements the Cobra-based CLI structure with commands
// for scanning, continuous watching, and service table inspection.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veriscan/veriscan/internal/config"
	"github.com/veriscan/veriscan/internal/logging"
)

const (
	// Process exit codes. Interrupted scans follow the shell convention of
	// 128 + SIGINT.
	exitError       = 1
	exitInterrupted = 130
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "veriscan",
	Short: "Concurrent TCP Port Scanner",
	Long: `Veriscan is a concurrent TCP connect port scanner that can cross-check
its findings against nmap, report an accuracy score for the agreement
between the two, and keep watching a target for open-port drift on a
schedule.`,
	Version: getVersion(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(exitError)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.AutomaticEnv()
	viper.SetEnvPrefix("VERISCAN")

	// Set defaults for common configuration
	setConfigDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	// Initialize structured logging after config is loaded
	initLogging()
}

// setConfigDefaults sets default values for configuration.
func setConfigDefaults() {
	// Scanning configuration
	viper.SetDefault("scan.workers", 100)
	viper.SetDefault("scan.timeout", "1s")

	// Reference scanner configuration
	viper.SetDefault("reference.timing", "normal")
	viper.SetDefault("reference.timeout", "5m")

	// Resolution and status sidecar configuration
	viper.SetDefault("resolve.timeout", "5s")
	viper.SetDefault("status.enabled", false)
	viper.SetDefault("status.addr", "127.0.0.1:9090")

	// Watch configuration
	viper.SetDefault("watch.schedule", "@every 1m")

	// Logging configuration
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stderr")
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	// Try to load full config for logging settings
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		// If config loading fails, use default logging
		logger := logging.NewDefault()
		logging.SetDefault(logger)
		return
	}

	// Flags set on the command line take precedence over the config file.
	// An explicit --log-level also beats --verbose.
	level := cfg.Logging.Level
	format := cfg.Logging.Format
	if verbose {
		level = string(logging.LevelDebug)
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		level = logLevel
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format = logFormat
	}

	// Convert config logging to our logging config
	logConfig := logging.Config{
		Level:     logging.LogLevel(level),
		Format:    logging.LogFormat(format),
		Output:    cfg.Logging.Output,
		AddSource: level == string(logging.LevelDebug),
	}

	// Create logger
	logger, err := logging.New(logConfig)
	if err != nil {
		// Fall back to default if creation fails
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	// Set as default logger
	logging.SetDefault(logger)

	// Log initialization if verbose
	if verbose {
		logging.Debug("Structured logging initialized", "level", level, "format", format)
	}
}
