package generator

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultRecordCount is the number of records a default run produces
	DefaultRecordCount = 10000
	// DefaultSeed seeds the numeric stream
	DefaultSeed int64 = 42
)

// RefundSelection decides how the Refunded branch is carved out of the discriminator draws
type RefundSelection string

const (
	// RefundSelectionLiteral draws two fresh values and requires the first above 0.15 and the
	// second below 0.20, which yields roughly 14.5% refunds overall
	RefundSelectionLiteral RefundSelection = "literal"
	// RefundSelectionContiguous selects Refunded when the first discriminator is in [0.15, 0.20)
	RefundSelectionContiguous RefundSelection = "contiguous"
)

// ParseRefundSelection converts a configuration value into a RefundSelection
func ParseRefundSelection(value string) (RefundSelection, error) {
	switch RefundSelection(strings.ToLower(strings.TrimSpace(value))) {
	case "", RefundSelectionLiteral:
		return RefundSelectionLiteral, nil
	case RefundSelectionContiguous:
		return RefundSelectionContiguous, nil
	default:
		return "", fmt.Errorf("unknown refund selection: %s", value)
	}
}

// MissingRates holds the fraction of rows cleared per field by the missingness pass
type MissingRates struct {
	Country     float64
	PaymentType float64
	Amount      float64
}

// DefaultMissingRates returns the rates applied by a default run
func DefaultMissingRates() MissingRates {
	return MissingRates{
		Country:     0.05,
		PaymentType: 0.10,
		Amount:      0.05,
	}
}

// Options configures a Generator
type Options struct {
	// RecordCount is the number of records to generate
	RecordCount int

	// Seed seeds the numeric stream: countries, branch discriminators, amounts,
	// payment types, statuses, risky hours and chargeback perturbations
	Seed int64

	// IdentifierSeed seeds the identifier stream (ids and missingness positions).
	// Zero leaves the stream nondeterministic.
	IdentifierSeed int64

	// FakerSeed seeds the base date and time-of-day stream. Zero leaves it nondeterministic.
	FakerSeed int64

	RefundSelection RefundSelection

	// MissingRates defaults to DefaultMissingRates when all rates are zero
	MissingRates MissingRates

	// DisableMissingness skips the missingness pass whatever MissingRates holds
	DisableMissingness bool

	// Now returns the end of the date lookback window. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options of a default run
func DefaultOptions() Options {
	return Options{
		RecordCount:     DefaultRecordCount,
		Seed:            DefaultSeed,
		RefundSelection: RefundSelectionLiteral,
		MissingRates:    DefaultMissingRates(),
		Now:             time.Now,
	}
}
