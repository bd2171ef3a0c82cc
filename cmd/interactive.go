// Package cmd contains CLI command definitions
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jose0808/PerformanceComparationFramework/internal/config"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
	"github.com/Jose0808/PerformanceComparationFramework/pkg/interactive"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive mode",
	Long:  `Launches the interactive menu for running and inspecting comparisons.`,
	Run: func(_ *cobra.Command, _ []string) {
		RunInteractive()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// RunInteractive drives the top-level menu loop.
func RunInteractive() {
	fmt.Println("Perfcompare - Interactive Mode")
	fmt.Println("==============================")
	fmt.Println()

	menu := &interactive.Menu{
		Title: "What would you like to do?",
		Items: []interactive.Item{
			{
				Label:   "Run all scenarios",
				Details: "Execute the full suite against both applications",
				Run: func() error {
					runAndReport(nil)
					return nil
				},
			},
			{
				Label:   "Run one scenario",
				Details: "Pick a single scenario to execute",
				Run: func() error {
					name, err := pickScenario()
					if err != nil {
						return nil
					}
					runAndReport([]string{name})
					return nil
				},
			},
			{
				Label:   "Show config",
				Details: "Display current environment configuration",
				Run: func() error {
					cfg, err := config.Load()
					if err != nil {
						fmt.Printf("\nError: %v\n", err)
					} else {
						fmt.Print(cfg.String())
					}
					interactive.PauseForEnter()
					return nil
				},
			},
		},
	}

	menu.Loop()
}

func runAndReport(scenarioNames []string) {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err == nil {
		err = runComparison(context.Background(), cfg, scenarioNames)
	}
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
	}
	interactive.PauseForEnter()
}

func pickScenario() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	suite, err := scenario.NewLoader(Logger).Load(cfg.SuitePath)
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
		return "", err
	}

	names := make([]string, 0, len(suite.Scenarios))
	for _, sc := range suite.Scenarios {
		names = append(names, sc.Name)
	}
	return interactive.Select("Which scenario?", names)
}
