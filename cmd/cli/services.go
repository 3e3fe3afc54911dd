package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/veriscan/veriscan/internal/report"
)

// servicesCmd represents the services command.
var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the built-in port-to-service table",
	Long: `Services prints every port-to-service mapping the scanner knows about.
These are the names shown next to open ports in scan reports, and the
set scanned by --common.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		report.New(os.Stdout).Services()
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
