// Command fiber runs and traces the fiber reconciliation engine.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/fiber/cmd/fiber/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
