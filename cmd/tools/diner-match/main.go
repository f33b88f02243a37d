// cmd/tools/diner-match/main.go

// Command diner-match runs the matching core over a JSON file of diner
// profiles, without any workflow engine or database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
