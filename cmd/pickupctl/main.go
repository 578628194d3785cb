// Command pickupctl prices, exports and migrates pickup logs from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pickup-service/internal/config"
	"pickup-service/internal/logging"
	"pickup-service/internal/service"
	"pickup-service/internal/storage"
)

var (
	dataFile string
	verbose  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pickupctl",
	Short: "Operate on the childcare pickup log",
	Long: `pickupctl works directly on the pickup log file.

Examples:
  pickupctl cost 2024-03-06T15:50:00
  pickupctl export --month 2024-03 > march.csv
  pickupctl export --type summary
  pickupctl migrate --table pickup-logs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dataFile == "" {
			dataFile = cfg.DataFile
		}

		logCfg := logging.Config{Level: "warn", Format: "console", Output: "stderr"}
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataFile, "file", "", "pickup log file (default is DATA_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(costCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
}

func newFileService() *service.PickupService {
	svc := service.NewPickupService(storage.NewFilePickupStorage(dataFile), cfg.Location(), logger)
	svc.SetFilenamePrefix(cfg.ExportPrefix)
	return svc
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
