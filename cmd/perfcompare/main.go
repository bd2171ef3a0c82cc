// Package main is the entry point for the perfcompare application
package main

import (
	"os"

	"github.com/Jose0808/PerformanceComparationFramework/cmd"
)

func main() {
	// No arguments launches the interactive menu; anything else goes
	// through the cobra CLI.
	if len(os.Args) == 1 {
		cmd.RunInteractive()
		return
	}
	cmd.Execute()
}
