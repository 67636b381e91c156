package generator

import (
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

var fixedNow = time.Date(2026, time.October, 17, 15, 30, 0, 0, time.UTC)

func testOptions(n int) Options {
	opts := DefaultOptions()
	opts.RecordCount = n
	opts.IdentifierSeed = 7
	opts.FakerSeed = 11
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func TestGenerate_TransactionIDsAreContiguous(t *testing.T) {
	records := New(testOptions(500)).Generate()
	require.Len(t, records, 500)

	seen := make(map[string]bool, len(records))
	for i, tx := range records {
		assert.Equal(t, "TX"+strconv.Itoa(10000+i), tx.TransactionID)
		assert.False(t, seen[tx.TransactionID], "duplicate id %s", tx.TransactionID)
		seen[tx.TransactionID] = true
	}
}

func TestGenerate_ZeroRecords(t *testing.T) {
	for _, n := range []int{0, -3} {
		records := New(testOptions(n)).Generate()
		assert.NotNil(t, records)
		assert.Empty(t, records)
	}
}

func TestGenerate_FieldDomains(t *testing.T) {
	records := New(testOptions(2000)).Generate()
	start, end := New(testOptions(0)).LookbackWindow()

	for _, tx := range records {
		assert.True(t, tx.Status.Valid(), "unexpected status %q", tx.Status)

		if tx.HasCountry() {
			assert.Contains(t, models.Countries, tx.Country)
		}
		if tx.HasPaymentType() {
			assert.Contains(t, models.PaymentTypes, tx.PaymentType)
		}

		assertPrefixedRange(t, tx.CustomerID, "C", 1000, 9876)
		assertPrefixedRange(t, tx.ProductID, "P", 1, 100)
		assertPrefixedRange(t, tx.MerchantID, "M", 1, 50)

		_, err := time.Parse(models.TimeLayout, tx.Time)
		require.NoError(t, err, "time %q", tx.Time)

		date, err := time.Parse(models.DateLayout, tx.Date)
		require.NoError(t, err, "date %q", tx.Date)
		assertDateInWindow(t, tx, date, start, end)

		if tx.HasAmount() {
			assert.True(t, tx.Amount.Decimal.Exponent() >= -2, "amount %s has more than two decimals", tx.AmountString())
		}
	}
}

// assertDateInWindow checks a record's date against the lookback window. A
// chargeback may leave the window only through the holiday day swap, which keeps
// the year and month of a date inside the window.
func assertDateInWindow(t *testing.T, tx *models.Transaction, date, start, end time.Time) {
	t.Helper()
	if !date.Before(start) && !date.After(end) {
		return
	}
	require.Equal(t, models.Chargeback, tx.Status, "%s %s dated %s outside the window", tx.TransactionID, tx.Status, tx.Date)
	assert.Contains(t, HolidayMonths, date.Month(), "chargeback %s dated %s", tx.TransactionID, tx.Date)
	assert.Contains(t, HolidayDays, date.Day(), "chargeback %s dated %s", tx.TransactionID, tx.Date)

	firstOfMonth := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
	assert.False(t, lastOfMonth.Before(start) || firstOfMonth.After(end),
		"chargeback %s dated %s in a month outside the window", tx.TransactionID, tx.Date)
}

func TestGenerate_ChargebackDatesInHolidayMonth(t *testing.T) {
	opts := testOptions(10000)
	opts.Now = func() time.Time { return time.Date(2027, time.January, 10, 9, 0, 0, 0, time.UTC) }
	g := New(opts)
	records := g.Generate()
	start, end := g.LookbackWindow()

	future := 0
	for _, tx := range records {
		date, err := time.Parse(models.DateLayout, tx.Date)
		require.NoError(t, err)
		assertDateInWindow(t, tx, date, start, end)

		if tx.Status == models.Chargeback && slices.Contains(HolidayMonths, date.Month()) {
			assert.Contains(t, HolidayDays, date.Day(), "chargeback %s in a holiday month dated %s", tx.TransactionID, tx.Date)
		}
		if date.After(end) {
			future++
		}
	}
	// January chargebacks dated before the 10th can be swapped to the 24th and later
	assert.Positive(t, future)
}

func assertPrefixedRange(t *testing.T, id, prefix string, low, high int) {
	t.Helper()
	require.True(t, strings.HasPrefix(id, prefix), "id %q lacks prefix %q", id, prefix)
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, low)
	assert.LessOrEqual(t, n, high)
}

func TestGenerate_AmountRangesByStatus(t *testing.T) {
	records := New(testOptions(5000)).Generate()

	for _, tx := range records {
		if !tx.HasAmount() {
			continue
		}
		amount := tx.Amount.Decimal.InexactFloat64()

		switch tx.Status {
		case models.Chargeback:
			assert.GreaterOrEqual(t, amount, 500.0)
			if tx.Country == models.USA {
				assert.GreaterOrEqual(t, amount, 600.0)
			}
			assert.LessOrEqual(t, amount, 1400.0)
		case models.Refunded:
			assert.GreaterOrEqual(t, amount, 50.0)
			assert.LessOrEqual(t, amount, 1000.0)
		default:
			assert.GreaterOrEqual(t, amount, 50.0)
			assert.LessOrEqual(t, amount, 1400.0)
		}
	}
}

func TestGenerate_ChargebackBias(t *testing.T) {
	records := New(testOptions(5000)).Generate()

	var chargebacks int
	for _, tx := range records {
		if tx.Status != models.Chargeback {
			continue
		}
		chargebacks++

		clock, err := time.Parse(models.TimeLayout, tx.Time)
		require.NoError(t, err)
		assert.Contains(t, RiskyHours, clock.Hour(), "chargeback %s at %s", tx.TransactionID, tx.Time)

		date, err := time.Parse(models.DateLayout, tx.Date)
		require.NoError(t, err)
		if slices.Contains(HolidayMonths, date.Month()) {
			assert.Contains(t, HolidayDays, date.Day(), "holiday chargeback %s on %s", tx.TransactionID, tx.Date)
		}
		if slices.Contains(MonthEdgeDays, date.Day()) {
			assert.Contains(t, MonthEdgeMinutes, clock.Minute(), "month-edge chargeback %s at %s", tx.TransactionID, tx.Time)
		}
	}
	assert.Greater(t, chargebacks, 0)
}

func TestGenerate_MissingnessCounts(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"small", 37},
		{"medium", 1000},
		{"large", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := New(testOptions(tt.n)).Generate()

			var countries, payments, amounts int
			for _, tx := range records {
				if !tx.HasCountry() {
					countries++
				}
				if !tx.HasPaymentType() {
					payments++
				}
				if !tx.HasAmount() {
					amounts++
				}
			}

			rates := DefaultMissingRates()
			assert.Equal(t, MissingCount(tt.n, rates.Country), countries)
			assert.Equal(t, MissingCount(tt.n, rates.PaymentType), payments)
			assert.Equal(t, MissingCount(tt.n, rates.Amount), amounts)
		})
	}
}

func TestGenerate_MissingnessDisabled(t *testing.T) {
	opts := testOptions(1000)
	opts.DisableMissingness = true
	g := New(opts)
	assert.Equal(t, MissingRates{}, g.Options().MissingRates)

	for _, tx := range g.Generate() {
		assert.True(t, tx.HasCountry(), "%s lost its country", tx.TransactionID)
		assert.True(t, tx.HasPaymentType(), "%s lost its payment type", tx.TransactionID)
		assert.True(t, tx.HasAmount(), "%s lost its amount", tx.TransactionID)
	}

	// Zero rates without the flag still mean the defaults
	opts.DisableMissingness = false
	opts.MissingRates = MissingRates{}
	assert.Equal(t, DefaultMissingRates(), New(opts).Options().MissingRates)
}

func TestMissingCount(t *testing.T) {
	assert.Equal(t, 500, MissingCount(10000, 0.05))
	assert.Equal(t, 1000, MissingCount(10000, 0.10))
	assert.Equal(t, 1, MissingCount(37, 0.05))
	assert.Equal(t, 0, MissingCount(19, 0.05))
	assert.Equal(t, 0, MissingCount(100, 0))
}

func TestGenerate_SeedReproducesNumericStream(t *testing.T) {
	a := testOptions(3000)
	b := testOptions(3000)
	b.IdentifierSeed = 99
	b.FakerSeed = 123

	first := New(a).Generate()
	second := New(b).Generate()

	for i := range first {
		assert.Equal(t, first[i].Status, second[i].Status, "status differs at row %d", i)
		if first[i].HasAmount() && second[i].HasAmount() {
			assert.True(t, first[i].Amount.Decimal.Equal(second[i].Amount.Decimal), "amount differs at row %d", i)
		}
	}
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	a := testOptions(200)
	b := testOptions(200)
	b.Seed = a.Seed + 1

	first := New(a).Generate()
	second := New(b).Generate()

	var differing int
	for i := range first {
		if first[i].AmountString() != second[i].AmountString() {
			differing++
		}
	}
	assert.Greater(t, differing, 100)
}

func TestGenerate_StatusRates(t *testing.T) {
	tests := []struct {
		name          string
		selection     RefundSelection
		wantRefunded  float64
		wantChargebck float64
	}{
		{"literal two draws", RefundSelectionLiteral, 0.85 * 0.85 * 0.20, 0.15},
		{"contiguous slice", RefundSelectionContiguous, 0.05, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(20000)
			opts.RefundSelection = tt.selection
			records := New(opts).Generate()

			counts := make(map[models.Status]int)
			for _, tx := range records {
				counts[tx.Status]++
			}

			n := float64(len(records))
			assert.InDelta(t, tt.wantChargebck, float64(counts[models.Chargeback])/n, 0.015)
			assert.InDelta(t, tt.wantRefunded, float64(counts[models.Refunded])/n, 0.015)
		})
	}
}

func TestGenerate_CountryMarginals(t *testing.T) {
	opts := testOptions(20000)
	opts.DisableMissingness = true
	records := New(opts).Generate()

	counts := make(map[models.Country]int)
	for _, tx := range records {
		counts[tx.Country]++
	}

	n := float64(len(records))
	assert.InDelta(t, 0.4, float64(counts[models.USA])/n, 0.015)
	assert.InDelta(t, 0.3, float64(counts[models.UK])/n, 0.015)
	assert.InDelta(t, 0.2, float64(counts[models.Canada])/n, 0.015)
	assert.InDelta(t, 0.1, float64(counts[models.Australia])/n, 0.015)
}

func TestParseRefundSelection(t *testing.T) {
	got, err := ParseRefundSelection("")
	require.NoError(t, err)
	assert.Equal(t, RefundSelectionLiteral, got)

	got, err = ParseRefundSelection(" Contiguous ")
	require.NoError(t, err)
	assert.Equal(t, RefundSelectionContiguous, got)

	_, err = ParseRefundSelection("sometimes")
	assert.Error(t, err)
}
