// Command s4d5 runs the alpha strategist workflow and inspects its audit trail.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
