package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

func TestRenderStatusTable(t *testing.T) {
	s := Summarize([]*models.Transaction{
		{Status: models.Refunded, Amount: amount("50"), Time: "10:00:00"},
		{Status: models.Completed, Time: "10:00:00"},
	})

	var buf bytes.Buffer
	RenderStatusTable(&buf, s, FormatText)

	out := buf.String()
	assert.Contains(t, out, "Refunded")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "N/A")
}

func TestRenderBreakdownTable_Markdown(t *testing.T) {
	s := Summarize([]*models.Transaction{
		{Status: models.Pending, Country: models.Australia, Time: "10:00:00"},
	})

	var buf bytes.Buffer
	RenderBreakdownTable(&buf, s, FormatMarkdown)

	out := buf.String()
	assert.Contains(t, out, "Australia")
	assert.Contains(t, out, "(missing)")
	assert.Contains(t, out, "|")
}
