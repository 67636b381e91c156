package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/pedro-hbl/fintx-dataset-generator/internal/config"
	"github.com/pedro-hbl/fintx-dataset-generator/internal/pipeline"
)

// Prepares the storage behind each requested sink: DynamoDB table, Timestream
// database and table, immudb table. Nothing is written.
func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"all"}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var names []string
	for _, arg := range args {
		arg = strings.ToLower(arg)
		if arg == "all" {
			names = []string{"dynamodb", "timestream", "immudb"}
			break
		}
		names = append(names, arg)
	}

	cfg.Sinks, err = config.ParseSinks(strings.Join(names, ","))
	if err != nil {
		log.Fatalf("Unknown sink type: %v", err)
	}
	// Setup always creates the DynamoDB table
	cfg.DynamoDB.CreateTable = true

	targets, err := pipeline.CreateSinks(pipeline.DefaultRegistry(), cfg, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	for _, sink := range targets {
		log.Printf("Setting up %s...", sink.Name())
		if err := sink.Initialize(ctx); err != nil {
			log.Fatalf("Failed to set up %s: %v", sink.Name(), err)
		}
		if err := sink.Close(); err != nil {
			log.Printf("Warning: failed to close %s: %v", sink.Name(), err)
		}
		log.Printf("%s setup completed successfully", sink.Name())
	}
}
