package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hookrelay/dispatch/routes"
)

/* validate-config - standalone CLI tool to validate webhooks.yaml
 * Usage: go run cmd/validate-config/main.go [webhooks.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	registryFile := "webhooks.yaml"
	if len(os.Args) > 1 {
		registryFile = os.Args[1]
	}

	fmt.Printf("Validating webhook registry: %s\n", registryFile)
	fmt.Println(strings.Repeat("=", 50))

	loader := routes.NewLoader()
	if err := loader.Load(registryFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	registrations := loader.List()
	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d webhook registration(s):\n", len(registrations))

	for i, reg := range registrations {
		fmt.Printf("\n%d. Webhook: %d\n", i+1, reg.WebhookID)
		fmt.Printf("   Label:         %s\n", reg.Label)
		fmt.Printf("   URL:           %s\n", reg.URL)
		fmt.Printf("   Delivery Mode: %s\n", reg.Mode)

		if len(reg.EventTypeFilters) > 0 {
			fmt.Printf("   Event Types:   %v\n", reg.EventTypeFilters)
		}
		if reg.SigningSecret != "" {
			fmt.Printf("   Signing:       configured\n")
		}
		if reg.MaxBatchSize != nil {
			fmt.Printf("   Max Batch Size: %d\n", *reg.MaxBatchSize)
		}
		if reg.MaxBatchWait != nil {
			fmt.Printf("   Max Batch Wait: %ds\n", *reg.MaxBatchWait)
		}
	}

	fmt.Printf("\nAll webhook registrations are valid.\n")
	os.Exit(0)
}
