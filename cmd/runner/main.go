package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GenerateRequest mirrors the generator Lambda's request payload
type GenerateRequest struct {
	RecordCount     *int                   `json:"recordCount,omitempty"`
	Seed            *int64                 `json:"seed,omitempty"`
	RefundSelection string                 `json:"refundSelection,omitempty"`
	Sinks           []string               `json:"sinks,omitempty"`
	Verify          *bool                  `json:"verify,omitempty"`
	Parameters      map[string]interface{} `json:"parameters,omitempty"`
}

// GenerateResult holds the generator Lambda's response plus the time it was received
type GenerateResult struct {
	RunID            string                 `json:"runId"`
	Success          bool                   `json:"success"`
	ErrorMessage     string                 `json:"errorMessage,omitempty"`
	RecordsGenerated int                    `json:"recordsGenerated"`
	StatusCounts     map[string]int         `json:"statusCounts,omitempty"`
	MissingCounts    map[string]int         `json:"missingCounts,omitempty"`
	TotalDurationNs  int64                  `json:"totalDurationNs"`
	Metrics          map[string]interface{} `json:"metrics,omitempty"`
	Seed             int64                  `json:"seed"`
	Timestamp        time.Time              `json:"timestamp"`
}

// Command line flags
var (
	lambdaEndpoint  = flag.String("lambda-endpoint", "", "Generator Lambda endpoint URL")
	seeds           = flag.String("seeds", "42", "Comma-separated list of seeds, one run per seed")
	recordCount     = flag.Int("records", 10000, "Number of transactions per run")
	refundSelection = flag.String("refund-selection", "", "Refund branch selection: literal, contiguous")
	sinkList        = flag.String("sinks", "", "Comma-separated list of sinks for every run")
	verify          = flag.Bool("verify", false, "Ask the Lambda to re-count every sink")
	outputDir       = flag.String("output", "", "Directory to store result files")
	verbose         = flag.Bool("verbose", false, "Enable verbose output")
)

const invocationPath = "/2015-03-31/functions/function/invocations"

func main() {
	flag.Parse()

	// Set up logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)

	// Get Lambda endpoint from flag or environment variable
	if *lambdaEndpoint == "" {
		*lambdaEndpoint = os.Getenv("LAMBDA_ENDPOINT")
		if *lambdaEndpoint == "" {
			log.Fatalf("Lambda endpoint not specified. Use --lambda-endpoint flag or LAMBDA_ENDPOINT environment variable")
		}
	}

	// Get output directory from flag or environment variable
	if *outputDir == "" {
		*outputDir = os.Getenv("RESULTS_DIR")
		if *outputDir == "" {
			*outputDir = "./results"
		}
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	seedList, err := parseSeeds(*seeds)
	if err != nil {
		log.Fatalf("Invalid --seeds: %v", err)
	}

	failures := 0
	for _, seed := range seedList {
		request := buildRequest(seed)

		log.Printf("Running dataset generation with seed %d using endpoint %s", seed, *lambdaEndpoint)
		result, err := invoke(http.DefaultClient, *lambdaEndpoint, request)
		if err != nil {
			log.Fatalf("Failed to invoke Lambda function: %v", err)
		}
		result.Seed = seed
		result.Timestamp = time.Now()

		if path, err := saveResult(*outputDir, result); err != nil {
			log.Printf("Failed to save result: %v", err)
		} else {
			log.Printf("Result saved to %s", path)
		}

		printSummary(result)
		if !result.Success {
			failures++
		}
	}

	if failures > 0 {
		log.Fatalf("%d of %d runs failed", failures, len(seedList))
	}
	log.Println("All runs completed!")
}

// parseSeeds parses a comma-separated list of integer seeds
func parseSeeds(value string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seed, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, seed)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no seeds given")
	}
	return out, nil
}

func buildRequest(seed int64) GenerateRequest {
	request := GenerateRequest{
		RecordCount:     recordCount,
		Seed:            &seed,
		RefundSelection: *refundSelection,
		Verify:          verify,
	}
	if *sinkList != "" {
		request.Sinks = strings.Split(*sinkList, ",")
	}
	return request
}

// invoke posts the request to the Lambda runtime interface and decodes the response
func invoke(client *http.Client, endpoint string, request GenerateRequest) (*GenerateResult, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if *verbose {
		log.Printf("Request payload: %s", string(jsonData))
	}

	resp, err := client.Post(strings.TrimRight(endpoint, "/")+invocationPath, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if *verbose {
		log.Printf("Response: %s", string(body))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result GenerateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &result, nil
}

func saveResult(dir string, result *GenerateResult) (string, error) {
	timestamp := result.Timestamp.Format("20060102-150405")
	filename := fmt.Sprintf("dataset-seed%d-%s.json", result.Seed, timestamp)
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write result to file: %w", err)
	}
	return path, nil
}

func printSummary(result *GenerateResult) {
	if !result.Success {
		log.Printf("Run %s failed: %s", result.RunID, result.ErrorMessage)
		return
	}

	log.Printf("==== Dataset Run Summary ====")
	log.Printf("Run ID:      %s", result.RunID)
	log.Printf("Seed:        %d", result.Seed)
	log.Printf("Records:     %d", result.RecordsGenerated)
	log.Printf("Chargebacks: %d", result.StatusCounts["Chargeback"])
	log.Printf("Refunds:     %d", result.StatusCounts["Refunded"])
	log.Printf("Total Time:  %.2f ms", float64(result.TotalDurationNs)/1e6)
	log.Printf("=============================")
}
