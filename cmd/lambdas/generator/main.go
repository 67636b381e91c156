package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pedro-hbl/fintx-dataset-generator/internal/config"
	"github.com/pedro-hbl/fintx-dataset-generator/internal/metrics"
	"github.com/pedro-hbl/fintx-dataset-generator/internal/pipeline"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/generator"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/report"
)

// GenerateRequest configures one dataset run. Zero values fall back to the environment configuration.
type GenerateRequest struct {
	RecordCount     *int     `json:"recordCount,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
	RefundSelection string   `json:"refundSelection,omitempty"`
	Sinks           []string `json:"sinks,omitempty"`
	Verify          *bool    `json:"verify,omitempty"`
	// Parameters keyed "<sink>.<key>" override sink settings, e.g. "csv.path": "/tmp/tx.csv"
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// GenerateResponse reports the outcome of a run
type GenerateResponse struct {
	RunID            string                 `json:"runId"`
	Success          bool                   `json:"success"`
	ErrorMessage     string                 `json:"errorMessage,omitempty"`
	RecordsGenerated int                    `json:"recordsGenerated"`
	StatusCounts     map[models.Status]int  `json:"statusCounts,omitempty"`
	MissingCounts    report.MissingCounts   `json:"missingCounts"`
	TotalDurationNs  int64                  `json:"totalDurationNs"`
	Metrics          map[string]interface{} `json:"metrics,omitempty"`
}

var (
	// Global metrics collector
	metricsCollector *metrics.Collector

	// Track cold start
	isColdStart = true
)

func init() {
	metricsCollector = metrics.NewCollector()

	// Set up logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Llongfile)

	log.Println("Lambda dataset generator initialized")
}

// applyRequest overlays the request on the environment configuration
func applyRequest(cfg *config.Config, request GenerateRequest) error {
	if request.RecordCount != nil {
		if *request.RecordCount < 0 {
			return fmt.Errorf("recordCount must not be negative")
		}
		cfg.RecordCount = *request.RecordCount
	}
	if request.Seed != nil {
		cfg.Seed = *request.Seed
	}
	if request.RefundSelection != "" {
		selection, err := generator.ParseRefundSelection(request.RefundSelection)
		if err != nil {
			return err
		}
		cfg.RefundSelection = selection
	}
	if len(request.Sinks) > 0 {
		names, err := config.ParseSinks(strings.Join(request.Sinks, ","))
		if err != nil {
			return err
		}
		cfg.Sinks = names
	}
	if request.Verify != nil {
		cfg.Verify = *request.Verify
	}
	return nil
}

// handleRequest is the Lambda handler function
func handleRequest(ctx context.Context, request GenerateRequest) (GenerateResponse, error) {
	startTime := time.Now()
	log.Printf("Received generate request: %+v", request)

	// The response carries the run's metrics; warm containers must not keep old runs
	defer metricsCollector.Reset()

	response := GenerateResponse{Success: false}

	cfg, err := config.Load()
	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Failed to load configuration: %v", err)
		log.Println(response.ErrorMessage)
		return response, nil
	}

	if err := applyRequest(cfg, request); err != nil {
		response.ErrorMessage = fmt.Sprintf("Invalid request: %v", err)
		log.Println(response.ErrorMessage)
		return response, nil
	}

	targets, err := pipeline.CreateSinks(pipeline.DefaultRegistry(), cfg, request.Parameters)
	if err != nil {
		response.ErrorMessage = err.Error()
		log.Println(response.ErrorMessage)
		return response, nil
	}

	parameters := map[string]interface{}{
		"recordCount": cfg.RecordCount,
		"seed":        cfg.Seed,
		"sinks":       cfg.Sinks,
		"isColdStart": isColdStart,
	}

	result, err := pipeline.Run(ctx, pipeline.Options{
		Generator:  cfg.GeneratorOptions(),
		Verify:     cfg.Verify,
		Parameters: parameters,
	}, targets, metricsCollector)

	// Reset cold start flag after first invocation
	isColdStart = false

	if result != nil {
		response.RunID = result.RunID
		response.RecordsGenerated = len(result.Records)
		response.StatusCounts = result.Summary.ByStatus
		response.MissingCounts = result.Summary.Missing
		if result.Metrics != nil {
			response.Metrics = result.Metrics.Summary
		}
	}
	response.TotalDurationNs = time.Since(startTime).Nanoseconds()

	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Dataset run failed: %v", err)
		log.Println(response.ErrorMessage)
		return response, nil
	}

	response.Success = true
	log.Printf("Dataset run %s completed in %v", response.RunID, time.Since(startTime))
	return response, nil
}

func main() {
	// Run as Lambda function if in AWS environment
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleRequest)
		return
	}

	log.Println("Running in local mode")

	requestFile := flag.String("request", "", "Path to a JSON request file")
	flag.Parse()

	var request GenerateRequest
	if *requestFile != "" {
		data, err := os.ReadFile(*requestFile)
		if err != nil {
			log.Fatalf("Failed to read request file: %v", err)
		}
		if err := json.Unmarshal(data, &request); err != nil {
			log.Fatalf("Failed to parse request file: %v", err)
		}
	}

	response, err := handleRequest(context.Background(), request)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	// Print response as JSON
	jsonResponse, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(jsonResponse))
}
