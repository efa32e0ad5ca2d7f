// Command eval runs the built-in detection regression set and prints a
// per-label report.
//
// Usage:
//
//	go run ./cmd/eval
//	go run ./cmd/eval --output report.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sentinelsec/inspector/eval"
)

func main() {
	var (
		outputFile = flag.String("output", "", "Path to write JSON report")
		failOnMiss = flag.Bool("fail", true, "Exit non-zero when any case fails")
	)
	flag.Parse()

	rep := eval.Run(eval.KoreanPIIDataset())
	fmt.Print(rep.String())

	if *outputFile != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			log.Fatalf("marshaling report: %v", err)
		}
		if err := os.WriteFile(*outputFile, data, 0o644); err != nil {
			log.Fatalf("writing %s: %v", *outputFile, err)
		}
		fmt.Fprintf(os.Stderr, "JSON report written to: %s\n", *outputFile)
	}

	if *failOnMiss && rep.Passed != len(rep.Cases) {
		os.Exit(1)
	}
}
