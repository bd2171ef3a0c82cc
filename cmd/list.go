package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Jose0808/PerformanceComparationFramework/internal/config"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios in the suite",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		suite, err := scenario.NewLoader(Logger).Load(cfg.SuitePath)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Name", "Description", "Steps", "Thresholds"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, sc := range suite.Scenarios {
			table.Append([]string{
				sc.Name,
				sc.Description,
				fmt.Sprintf("%d", len(sc.Steps)),
				fmt.Sprintf("%d", len(sc.ExpectedMetrics)),
			})
		}
		table.Render()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
