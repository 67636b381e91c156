package generator

import (
	"slices"
	"time"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// Probability tables shared by every generator
var (
	countryDist = newWeighted(
		models.Countries,
		[]float64{0.4, 0.3, 0.2, 0.1},
	)

	chargebackPayments = newWeighted(
		models.PaymentTypes,
		[]float64{0.5, 0.35, 0.15},
	)
	refundPayments = newWeighted(
		models.PaymentTypes,
		[]float64{0.35, 0.5, 0.15},
	)
	otherPayments = newWeighted(
		models.PaymentTypes,
		[]float64{0.3, 0.3, 0.4},
	)

	otherStatuses = newWeighted(
		[]models.Status{models.Completed, models.Pending, models.Cancelled},
		[]float64{0.4, 0.35, 0.25},
	)
)

const (
	chargebackRate = 0.15
	refundFloor    = 0.15
	refundCeiling  = 0.20
)

// Chargeback biasing
var (
	// RiskyHours are the late-night hours chargebacks are moved into
	RiskyHours = []int{2, 3, 4, 23, 0, 1}

	// HolidayMonths trigger the day-of-month perturbation
	HolidayMonths = []time.Month{time.November, time.December, time.January}

	// HolidayDays replace the day-of-month in holiday months
	HolidayDays = []int{24, 25, 26, 28, 2, 1}

	// MonthEdgeDays trigger the minute perturbation
	MonthEdgeDays = []int{30, 28, 1, 2}

	// MonthEdgeMinutes replace the minute on month-edge days
	MonthEdgeMinutes = []int{18, 22, 19}
)

type amountRange struct {
	low, high float64
}

var (
	chargebackUSAAmounts   = amountRange{600, 1400}
	chargebackOtherAmounts = amountRange{500, 1400}
	refundAmounts          = amountRange{50, 1000}
	otherAmounts           = amountRange{50, 1400}
)

// clock is a time of day at whole-second precision
type clock struct {
	hour, minute, second int
}

func (c clock) String() string {
	return time.Date(0, 1, 1, c.hour, c.minute, c.second, 0, time.UTC).Format(models.TimeLayout)
}

// branch fills status, amount, payment type, date and time of tx.
// Numeric draws happen in a fixed order so a seed reproduces the same amounts and statuses.
func (g *Generator) branch(tx *models.Transaction, date time.Time) {
	d := g.numeric.Float64()

	switch {
	case d < chargebackRate:
		g.chargeback(tx, date)
	case g.refundSelected(d):
		tx.Status = models.Refunded
		tx.PaymentType = refundPayments.pick(g.numeric)
		tx.Amount = roundedAmount(uniform(g.numeric, refundAmounts.low, refundAmounts.high))
		tx.Date = date.Format(models.DateLayout)
		tx.Time = g.fakeClock().String()
	default:
		tx.Status = otherStatuses.pick(g.numeric)
		tx.PaymentType = otherPayments.pick(g.numeric)
		tx.Amount = roundedAmount(uniform(g.numeric, otherAmounts.low, otherAmounts.high))
		tx.Date = date.Format(models.DateLayout)
		tx.Time = g.fakeClock().String()
	}
}

func (g *Generator) refundSelected(d float64) bool {
	if g.opts.RefundSelection == RefundSelectionContiguous {
		return d >= refundFloor && d < refundCeiling
	}
	// Two fresh draws; the second is only taken when the first passes
	return g.numeric.Float64() > refundFloor && g.numeric.Float64() < refundCeiling
}

func (g *Generator) chargeback(tx *models.Transaction, date time.Time) {
	tx.Status = models.Chargeback

	amounts := chargebackOtherAmounts
	if tx.Country == models.USA {
		amounts = chargebackUSAAmounts
	}
	tx.Amount = roundedAmount(uniform(g.numeric, amounts.low, amounts.high))
	tx.PaymentType = chargebackPayments.pick(g.numeric)

	c := g.fakeClock()
	c.hour = pickOne(g.numeric, RiskyHours)

	// Both perturbation values are drawn for every chargeback so the numeric stream
	// stays aligned with the seed whatever dates the faker stream produced.
	holidayDay := pickOne(g.numeric, HolidayDays)
	edgeMinute := pickOne(g.numeric, MonthEdgeMinutes)

	if slices.Contains(HolidayMonths, date.Month()) {
		date = time.Date(date.Year(), date.Month(), holidayDay, 0, 0, 0, 0, time.UTC)
	}
	if slices.Contains(MonthEdgeDays, date.Day()) {
		c.minute = edgeMinute
	}

	tx.Date = date.Format(models.DateLayout)
	tx.Time = c.String()
}
