// Package csvfile reads and writes the dataset as comma-separated text with a header row.
package csvfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// Header names the columns in output order
var Header = []string{
	"Transaction_ID",
	"Date",
	"Time",
	"Customer_ID",
	"Product_ID",
	"Amount",
	"Payment_Type",
	"Country",
	"Merchant_ID",
	"Status",
}

// Write serializes records to w, header first, one row per record in the given order.
// Missing values are written as empty fields.
func Write(w io.Writer, records []*models.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, tx := range records {
		if err := cw.Write(row(tx)); err != nil {
			return fmt.Errorf("failed to write %s: %w", tx.TransactionID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteFile writes records to path. The parent directory must already exist.
func WriteFile(path string, records []*models.Transaction) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	buf := bufio.NewWriter(file)
	if err := Write(buf, records); err != nil {
		file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func row(tx *models.Transaction) []string {
	return []string{
		tx.TransactionID,
		tx.Date,
		tx.Time,
		tx.CustomerID,
		tx.ProductID,
		tx.AmountString(),
		string(tx.PaymentType),
		string(tx.Country),
		tx.MerchantID,
		string(tx.Status),
	}
}

// Read parses a dataset written by Write
func Read(r io.Reader) ([]*models.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], name)
		}
	}

	records := []*models.Transaction{}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		tx, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, tx)
	}

	return records, nil
}

// ReadFile parses the dataset stored at path
func ReadFile(path string) ([]*models.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return Read(bufio.NewReader(file))
}

func parseRow(fields []string) (*models.Transaction, error) {
	tx := &models.Transaction{
		TransactionID: fields[0],
		Date:          fields[1],
		Time:          fields[2],
		CustomerID:    fields[3],
		ProductID:     fields[4],
		PaymentType:   models.PaymentType(fields[6]),
		Country:       models.Country(fields[7]),
		MerchantID:    fields[8],
		Status:        models.Status(fields[9]),
	}

	if fields[5] != "" {
		amount, err := decimal.NewFromString(fields[5])
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", fields[5], err)
		}
		tx.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	if !tx.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", fields[9])
	}

	return tx, nil
}
