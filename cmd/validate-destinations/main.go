package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aidaptics/lead-relay/forward"
)

/* validate-destinations - Standalone CLI tool to validate destinations.yaml
 * Usage: go run cmd/validate-destinations/main.go [destinations.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get destinations file path from args or use default
	file := "destinations.yaml"
	if len(os.Args) > 1 {
		file = os.Args[1]
	}

	fmt.Printf("Validating destinations file: %s\n", file)
	fmt.Println(strings.Repeat("-", 50))

	loader := forward.NewLoader()
	if err := loader.Load(file); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dests := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d destination(s):\n", len(dests))

	for i, d := range dests {
		fmt.Printf("\n%d. Destination: %s\n", i+1, d.Name)
		fmt.Printf("   URL:    %s\n", d.URL)
		fmt.Printf("   Format: %s\n", d.Format)
		fmt.Printf("   Role:   %s\n", d.Role)
	}

	fmt.Printf("\n✓ All destinations are valid!\n")
	os.Exit(0)
}
