package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pedro-hbl/fintx-dataset-generator/internal/config"
	"github.com/pedro-hbl/fintx-dataset-generator/internal/metrics"
	"github.com/pedro-hbl/fintx-dataset-generator/internal/pipeline"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/generator"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/report"
)

// Command line flags. Only flags given explicitly override the loaded configuration.
var (
	records         = flag.Int("records", generator.DefaultRecordCount, "Number of transactions to generate")
	seed            = flag.Int64("seed", generator.DefaultSeed, "Seed for amounts, statuses and other numeric draws")
	output          = flag.String("output", "", "Path of the CSV file to write")
	refundSelection = flag.String("refund-selection", "", "Refund branch selection: literal, contiguous")
	sinkList        = flag.String("sinks", "", "Comma-separated list of sinks: csv, dynamodb, timestream, immudb")
	verify          = flag.Bool("verify", false, "Re-count every sink after writing")
	summary         = flag.Bool("summary", false, "Print a summary table of the generated dataset")
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := applyFlags(cfg); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	targets, err := pipeline.CreateSinks(pipeline.DefaultRegistry(), cfg, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts := pipeline.Options{
		Generator: cfg.GeneratorOptions(),
		Verify:    cfg.Verify,
		Parameters: map[string]interface{}{
			"recordCount":     cfg.RecordCount,
			"seed":            cfg.Seed,
			"refundSelection": string(cfg.RefundSelection),
			"sinks":           strings.Join(cfg.Sinks, ","),
		},
	}

	result, err := pipeline.Run(context.Background(), opts, targets, metrics.NewCollector())
	if err != nil {
		log.Fatalf("Dataset generation failed: %v", err)
	}

	if *summary {
		report.RenderStatusTable(os.Stdout, result.Summary, report.FormatText)
		report.RenderBreakdownTable(os.Stdout, result.Summary, report.FormatText)
	}

	for _, name := range cfg.Sinks {
		if name == "csv" {
			fmt.Printf("Dataset generated and saved to '%s'\n", cfg.OutputPath)
		} else {
			fmt.Printf("Dataset generated and loaded into %s\n", name)
		}
	}
}

// applyFlags copies explicitly set flags over the configuration
func applyFlags(cfg *config.Config) error {
	var err error

	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "records":
			if *records < 0 {
				err = fmt.Errorf("-records must not be negative")
			}
			cfg.RecordCount = *records
		case "seed":
			cfg.Seed = *seed
		case "output":
			cfg.OutputPath = *output
		case "refund-selection":
			cfg.RefundSelection, err = generator.ParseRefundSelection(*refundSelection)
		case "sinks":
			cfg.Sinks, err = config.ParseSinks(*sinkList)
		case "verify":
			cfg.Verify = *verify
		}
	})

	return err
}
