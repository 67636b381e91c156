package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/csvfile"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/report"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/csvsink"
)

// OutputOptions for visualization
type OutputOptions struct {
	Format    string // text, csv, chart
	OutputDir string
	GroupBy   string // status, country
}

// GroupRow is one line of a grouped summary
type GroupRow struct {
	Label      string
	Records    int
	Share      float64
	MeanAmount float64
	HasMean    bool
}

// Command line flags
var (
	inputPath  = flag.String("input", csvsink.DefaultPath, "Path to a generated dataset CSV file")
	outputPath = flag.String("output", "visualizations", "Directory to store visualization outputs")
	format     = flag.String("format", "all", "Output format: text, csv, chart, all")
	groupBy    = flag.String("group-by", "status", "Group records by: status, country")
)

// Bar colors, cycled in group order
var palette = []drawing.Color{
	{R: 77, G: 184, B: 255, A: 255},  // Blue
	{R: 250, G: 134, B: 94, A: 255},  // Orange
	{R: 165, G: 235, B: 91, A: 255},  // Green
	{R: 252, G: 201, B: 100, A: 255}, // Yellow
	{R: 208, G: 134, B: 255, A: 255}, // Purple
}

func main() {
	flag.Parse()

	if *groupBy != "status" && *groupBy != "country" {
		log.Fatalf("Invalid -group-by value %q. Use status or country.", *groupBy)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(*outputPath, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	records, err := csvfile.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	if len(records) == 0 {
		log.Fatal("Dataset contains no records.")
	}

	summary := report.Summarize(records)
	fmt.Printf("Loaded %d transactions from %s.\n", summary.Total, *inputPath)

	opts := OutputOptions{
		Format:    *format,
		OutputDir: *outputPath,
		GroupBy:   *groupBy,
	}

	if opts.Format == "text" || opts.Format == "all" {
		generateTextSummary(summary, opts)
	}

	if opts.Format == "csv" || opts.Format == "all" {
		generateCSVReport(summary, opts)
	}

	if opts.Format == "chart" || opts.Format == "all" {
		generateCharts(summary, opts)
	}
}

// groupRows flattens the summary into one row per status or country, in declaration order
func groupRows(s report.Summary, groupBy string) []GroupRow {
	var rows []GroupRow

	share := func(n int) float64 {
		if s.Total == 0 {
			return 0
		}
		return float64(n) / float64(s.Total)
	}

	if groupBy == "country" {
		for _, country := range models.Countries {
			n := s.ByCountry[country]
			rows = append(rows, GroupRow{Label: string(country), Records: n, Share: share(n)})
		}
		rows = append(rows, GroupRow{Label: "(missing)", Records: s.Missing.Country, Share: share(s.Missing.Country)})
		return rows
	}

	for _, status := range models.Statuses {
		n := s.ByStatus[status]
		mean, ok := s.MeanAmount[status]
		rows = append(rows, GroupRow{Label: string(status), Records: n, Share: share(n), MeanAmount: mean, HasMean: ok})
	}
	return rows
}

// generateTextSummary prints the grouped table and saves a markdown copy
func generateTextSummary(s report.Summary, opts OutputOptions) {
	fmt.Println("\n=== Dataset Summary ===")

	render := report.RenderStatusTable
	if opts.GroupBy == "country" {
		render = report.RenderBreakdownTable
	}
	render(os.Stdout, s, report.FormatText)

	outputFile := filepath.Join(opts.OutputDir, fmt.Sprintf("summary_%s.md", opts.GroupBy))
	file, err := os.Create(outputFile)
	if err != nil {
		fmt.Printf("Warning: Failed to create summary file: %v\n", err)
		return
	}
	defer file.Close()

	fmt.Fprintf(file, "# Dataset Summary\n\n")
	fmt.Fprintf(file, "Grouped by: %s\n\n", opts.GroupBy)
	render(file, s, report.FormatMarkdown)

	fmt.Printf("Text summary saved to: %s\n", outputFile)
}

// writeSummaryCSV writes the grouped rows with a header
func writeSummaryCSV(path string, rows []GroupRow, groupBy string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{groupBy, "records", "share"}
	if groupBy == "status" {
		header = append(header, "mean_amount")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		fields := []string{row.Label, strconv.Itoa(row.Records), strconv.FormatFloat(row.Share, 'f', 4, 64)}
		if groupBy == "status" {
			mean := ""
			if row.HasMean {
				mean = strconv.FormatFloat(row.MeanAmount, 'f', 2, 64)
			}
			fields = append(fields, mean)
		}
		if err := w.Write(fields); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// generateCSVReport saves the grouped summary as CSV
func generateCSVReport(s report.Summary, opts OutputOptions) {
	outputFile := filepath.Join(opts.OutputDir, fmt.Sprintf("dataset_summary_%s.csv", opts.GroupBy))
	if err := writeSummaryCSV(outputFile, groupRows(s, opts.GroupBy), opts.GroupBy); err != nil {
		fmt.Printf("Warning: Failed to write CSV report: %v\n", err)
		return
	}

	fmt.Printf("CSV report saved to: %s\n", outputFile)
}

// generateCharts renders the distribution chart for the grouping, plus the
// mean amount and chargeback-hour charts
func generateCharts(s report.Summary, opts OutputOptions) {
	rows := groupRows(s, opts.GroupBy)

	var counts []chart.Value
	for i, row := range rows {
		counts = append(counts, bar(row.Label, float64(row.Records), i))
	}
	renderBarChart(
		fmt.Sprintf("Transactions by %s", opts.GroupBy),
		counts,
		func(v float64) string { return fmt.Sprintf("%.0f", v) },
		filepath.Join(opts.OutputDir, fmt.Sprintf("%s_distribution_chart.png", opts.GroupBy)),
	)

	var means []chart.Value
	for i, row := range groupRows(s, "status") {
		if row.HasMean {
			means = append(means, bar(row.Label, row.MeanAmount, i))
		}
	}
	renderBarChart(
		"Mean Amount by Status",
		means,
		func(v float64) string { return fmt.Sprintf("%.2f", v) },
		filepath.Join(opts.OutputDir, "mean_amount_by_status_chart.png"),
	)

	var hours []chart.Value
	for hour, n := range s.ChargebackAt {
		hours = append(hours, bar(fmt.Sprintf("%02d", hour), float64(n), 0))
	}
	renderBarChart(
		"Chargebacks by Hour of Day",
		hours,
		func(v float64) string { return fmt.Sprintf("%.0f", v) },
		filepath.Join(opts.OutputDir, "chargebacks_by_hour_chart.png"),
	)
}

func bar(label string, value float64, colorIndex int) chart.Value {
	color := palette[colorIndex%len(palette)]
	return chart.Value{
		Label: label,
		Value: value,
		Style: chart.Style{
			FillColor:   color,
			StrokeColor: color.WithAlpha(255),
			StrokeWidth: 0,
		},
	}
}

func renderBarChart(title string, bars []chart.Value, formatValue func(float64) string, outputFile string) {
	if len(bars) == 0 {
		return
	}

	barChart := chart.BarChart{
		Title: title,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:    800,
		Height:   400,
		BarWidth: 800 / (len(bars) * 2),
		Bars:     bars,
	}

	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return formatValue(vf)
		}
		return ""
	}

	f, err := os.Create(outputFile)
	if err != nil {
		fmt.Printf("Warning: Failed to create chart file: %v\n", err)
		return
	}
	defer f.Close()

	if err := barChart.Render(chart.PNG, f); err != nil {
		fmt.Printf("Warning: Failed to render chart: %v\n", err)
		return
	}

	fmt.Printf("Chart saved to: %s\n", outputFile)
}
