package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// MissingCounts counts cleared values per nullable field
type MissingCounts struct {
	Country     int `json:"country"`
	PaymentType int `json:"paymentType"`
	Amount      int `json:"amount"`
}

// Summary describes the shape of a generated dataset
type Summary struct {
	Total        int                        `json:"total"`
	ByStatus     map[models.Status]int      `json:"byStatus"`
	ByCountry    map[models.Country]int     `json:"byCountry"`
	ByPayment    map[models.PaymentType]int `json:"byPaymentType"`
	Missing      MissingCounts              `json:"missing"`
	MeanAmount   map[models.Status]float64  `json:"meanAmount"`
	ChargebackAt [24]int                    `json:"chargebackByHour"`
}

// Summarize tallies statuses, countries, payment types, missing values,
// mean amount per status and chargebacks per hour of day
func Summarize(records []*models.Transaction) Summary {
	s := Summary{
		Total:      len(records),
		ByStatus:   make(map[models.Status]int),
		ByCountry:  make(map[models.Country]int),
		ByPayment:  make(map[models.PaymentType]int),
		MeanAmount: make(map[models.Status]float64),
	}

	sums := make(map[models.Status]decimal.Decimal)
	amounts := make(map[models.Status]int)

	for _, tx := range records {
		s.ByStatus[tx.Status]++

		if tx.HasCountry() {
			s.ByCountry[tx.Country]++
		} else {
			s.Missing.Country++
		}

		if tx.HasPaymentType() {
			s.ByPayment[tx.PaymentType]++
		} else {
			s.Missing.PaymentType++
		}

		if tx.HasAmount() {
			sums[tx.Status] = sums[tx.Status].Add(tx.Amount.Decimal)
			amounts[tx.Status]++
		} else {
			s.Missing.Amount++
		}

		if tx.Status == models.Chargeback {
			if clock, err := time.Parse(models.TimeLayout, tx.Time); err == nil {
				s.ChargebackAt[clock.Hour()]++
			}
		}
	}

	for status, sum := range sums {
		mean := sum.Div(decimal.NewFromInt(int64(amounts[status]))).Round(2)
		s.MeanAmount[status] = mean.InexactFloat64()
	}

	return s
}

// StatusShare returns the fraction of records with the given status
func (s Summary) StatusShare(status models.Status) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByStatus[status]) / float64(s.Total)
}
