package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// TableFormat selects how summary tables are drawn
type TableFormat int

const (
	// FormatText draws boxed tables for terminals
	FormatText TableFormat = iota
	// FormatMarkdown draws pipe tables
	FormatMarkdown
)

func newTable(w io.Writer, format TableFormat) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	if format == FormatMarkdown {
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
	}
	return table
}

// RenderStatusTable writes one row per status with its count, share and mean amount
func RenderStatusTable(w io.Writer, s Summary, format TableFormat) {
	table := newTable(w, format)
	table.SetHeader([]string{"Status", "Records", "Share", "Mean Amount"})

	for _, status := range models.Statuses {
		mean := "N/A"
		if v, ok := s.MeanAmount[status]; ok {
			mean = fmt.Sprintf("%.2f", v)
		}
		table.Append([]string{
			string(status),
			strconv.Itoa(s.ByStatus[status]),
			fmt.Sprintf("%.2f%%", s.StatusShare(status)*100),
			mean,
		})
	}

	table.SetFooter([]string{"Total", strconv.Itoa(s.Total), "", ""})
	table.Render()
}

// RenderBreakdownTable writes country and payment type counts followed by missing values per field
func RenderBreakdownTable(w io.Writer, s Summary, format TableFormat) {
	table := newTable(w, format)
	table.SetHeader([]string{"Field", "Value", "Records"})

	for _, country := range models.Countries {
		table.Append([]string{"Country", string(country), strconv.Itoa(s.ByCountry[country])})
	}
	table.Append([]string{"Country", "(missing)", strconv.Itoa(s.Missing.Country)})

	for _, payment := range models.PaymentTypes {
		table.Append([]string{"Payment_Type", string(payment), strconv.Itoa(s.ByPayment[payment])})
	}
	table.Append([]string{"Payment_Type", "(missing)", strconv.Itoa(s.Missing.PaymentType)})
	table.Append([]string{"Amount", "(missing)", strconv.Itoa(s.Missing.Amount)})

	table.Render()
}
