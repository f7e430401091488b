// Command mpfswitchd runs a standalone switch controller daemon: it loads
// a switch roster from YAML, wires a simulated hardware platform, and
// drives the controller against it while serving Prometheus metrics.
package main

import (
	"fmt"
	"os"

	"github.com/driskel/mpf/cmd/mpfswitchd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
