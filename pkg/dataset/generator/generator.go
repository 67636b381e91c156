package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// Generator synthesizes transaction records with correlated fields and injected missing values.
//
// It draws from three independent streams. Only the numeric stream is covered by
// Options.Seed; identifiers, missingness positions and base dates/times stay
// nondeterministic unless IdentifierSeed and FakerSeed are set.
type Generator struct {
	opts Options

	numeric *rand.Rand
	ids     *gofakeit.Faker
	faker   *gofakeit.Faker
}

// New creates a generator. Zero-valued options fall back to the defaults.
func New(opts Options) *Generator {
	if opts.RefundSelection == "" {
		opts.RefundSelection = RefundSelectionLiteral
	}
	if opts.DisableMissingness {
		opts.MissingRates = MissingRates{}
	} else if opts.MissingRates == (MissingRates{}) {
		opts.MissingRates = DefaultMissingRates()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Generator{
		opts:    opts,
		numeric: rand.New(rand.NewSource(opts.Seed)),
		// gofakeit seeds itself from crypto/rand when given 0
		ids:   gofakeit.New(opts.IdentifierSeed),
		faker: gofakeit.New(opts.FakerSeed),
	}
}

// Options returns the effective options of the generator
func (g *Generator) Options() Options {
	return g.opts
}

// Generate produces RecordCount records in generation order, then applies the missingness pass
func (g *Generator) Generate() []*models.Transaction {
	n := g.opts.RecordCount
	if n <= 0 {
		return []*models.Transaction{}
	}

	dates := g.fakeDates(n)

	customerIDs := make([]string, n)
	productIDs := make([]string, n)
	merchantIDs := make([]string, n)
	for i := 0; i < n; i++ {
		customerIDs[i] = fmt.Sprintf("C%d", g.ids.Number(1000, 9876))
	}
	for i := 0; i < n; i++ {
		productIDs[i] = fmt.Sprintf("P%d", g.ids.Number(1, 100))
	}
	for i := 0; i < n; i++ {
		merchantIDs[i] = fmt.Sprintf("M%d", g.ids.Number(1, 50))
	}

	countries := make([]models.Country, n)
	for i := range countries {
		countries[i] = countryDist.pick(g.numeric)
	}

	records := make([]*models.Transaction, n)
	for i := 0; i < n; i++ {
		tx := &models.Transaction{
			TransactionID: models.TransactionID(i),
			CustomerID:    customerIDs[i],
			ProductID:     productIDs[i],
			MerchantID:    merchantIDs[i],
			Country:       countries[i],
		}
		g.branch(tx, dates[i])
		records[i] = tx
	}

	g.ApplyMissingness(records)
	return records
}

// ApplyMissingness clears a fixed-size random subset of rows per field:
// floor(len(records) * rate) positions each for country, payment type and amount.
func (g *Generator) ApplyMissingness(records []*models.Transaction) {
	n := len(records)
	rates := g.opts.MissingRates

	for _, i := range samplePositions(g.ids, n, MissingCount(n, rates.Country)) {
		records[i].Country = ""
	}
	for _, i := range samplePositions(g.ids, n, MissingCount(n, rates.PaymentType)) {
		records[i].PaymentType = ""
	}
	for _, i := range samplePositions(g.ids, n, MissingCount(n, rates.Amount)) {
		records[i].Amount = decimal.NullDecimal{}
	}
}

// MissingCount is the number of rows the missingness pass clears for n rows at rate
func MissingCount(n int, rate float64) int {
	if rate <= 0 {
		return 0
	}
	return int(float64(n) * rate)
}

// LookbackWindow returns the first and last date records may be dated with
func (g *Generator) LookbackWindow() (time.Time, time.Time) {
	now := g.opts.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(-1, 0, 0), today
}

func (g *Generator) fakeDates(n int) []time.Time {
	start, end := g.LookbackWindow()
	// Cover the whole of today
	last := end.Add(24*time.Hour - time.Nanosecond)

	dates := make([]time.Time, n)
	for i := range dates {
		d := g.faker.DateRange(start, last).UTC()
		dates[i] = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return dates
}

func (g *Generator) fakeClock() clock {
	return clock{
		hour:   g.faker.Hour(),
		minute: g.faker.Minute(),
		second: g.faker.Second(),
	}
}

func roundedAmount(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v).Round(2), Valid: true}
}
