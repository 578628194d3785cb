package main

import (
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"pickup-service/internal/storage"
)

var costCmd = &cobra.Command{
	Use:   "cost <timestamp>",
	Short: "Price a pickup without logging it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, at, err := newFileService().Quote(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s  €%s\n",
			at.Format("2006-01-02 15:04"), at.Weekday(), result.TimeSlot, result.Cost.StringFixed(2))
		return nil
	},
}

var (
	exportType  string
	exportMonth string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a CSV report to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := newFileService().Export(cmd.Context(), exportType, exportMonth)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(export.Content)
		return err
	},
}

var migrateTable string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the pickup log file into DynamoDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pickups, err := storage.NewFilePickupStorage(dataFile).Load(ctx)
		if err != nil {
			return err
		}

		table := migrateTable
		if table == "" {
			table = cfg.DynamoDBTable
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		target := storage.NewDynamoDBPickupStorage(dynamodb.NewFromConfig(awsCfg), table)
		if err := target.Save(ctx, pickups); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Copied %d pickups to %s\n", len(pickups), table)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportType, "type", "", `report type: "summary" or detail (default)`)
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "month to export as YYYY-MM (default is the current month)")

	migrateCmd.Flags().StringVar(&migrateTable, "table", "", "DynamoDB table (default is DYNAMODB_PICKUPS_TABLE)")
}
