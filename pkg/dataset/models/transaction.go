package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the layout of the Date column
	DateLayout = "2006-01-02"
	// TimeLayout is the layout of the Time column, whole seconds only
	TimeLayout = "15:04:05"
)

// Status is the lifecycle outcome of a transaction
type Status string

const (
	// Chargeback marks a disputed, fraud-like transaction
	Chargeback Status = "Chargeback"
	// Refunded marks a transaction returned to the customer
	Refunded Status = "Refunded"
	// Completed marks a settled transaction
	Completed Status = "Completed"
	// Pending marks a transaction awaiting settlement
	Pending Status = "Pending"
	// Cancelled marks a transaction cancelled before settlement
	Cancelled Status = "Cancelled"
)

// Statuses lists every status in reporting order
var Statuses = []Status{Chargeback, Refunded, Completed, Pending, Cancelled}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentType is the instrument used to pay. The zero value means absent.
type PaymentType string

const (
	CreditCard PaymentType = "Credit Card"
	DebitCard  PaymentType = "Debit Card"
	PayPal     PaymentType = "PayPal"
)

// PaymentTypes lists every payment type in reporting order
var PaymentTypes = []PaymentType{CreditCard, DebitCard, PayPal}

// Country is where the transaction took place. The zero value means absent.
type Country string

const (
	USA       Country = "USA"
	UK        Country = "UK"
	Canada    Country = "Canada"
	Australia Country = "Australia"
)

// Countries lists every country in reporting order
var Countries = []Country{USA, UK, Canada, Australia}

// Transaction represents one synthetic financial transaction record
type Transaction struct {
	// TransactionID is "TX" followed by 10000 + row index
	TransactionID string `json:"transactionId"`

	// Date is the calendar date, formatted with DateLayout
	Date string `json:"date"`

	// Time is the time of day, formatted with TimeLayout
	Time string `json:"time"`

	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	MerchantID string `json:"merchantId"`

	// Amount is rounded to two decimal places; Valid is false when the value is missing
	Amount decimal.NullDecimal `json:"amount"`

	// PaymentType is empty when the value is missing
	PaymentType PaymentType `json:"paymentType,omitempty"`

	// Country is empty when the value is missing
	Country Country `json:"country,omitempty"`

	Status Status `json:"status"`
}

// TransactionID formats the identifier of the row at index
func TransactionID(index int) string {
	return fmt.Sprintf("TX%d", 10000+index)
}

// HasAmount reports whether the amount survived the missingness pass
func (t *Transaction) HasAmount() bool {
	return t.Amount.Valid
}

// HasPaymentType reports whether the payment type survived the missingness pass
func (t *Transaction) HasPaymentType() bool {
	return t.PaymentType != ""
}

// HasCountry reports whether the country survived the missingness pass
func (t *Transaction) HasCountry() bool {
	return t.Country != ""
}

// OccurredAt combines Date and Time into a UTC timestamp
func (t *Transaction) OccurredAt() (time.Time, error) {
	ts, err := time.ParseInLocation(DateLayout+" "+TimeLayout, t.Date+" "+t.Time, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp for %s: %w", t.TransactionID, err)
	}
	return ts, nil
}

// AmountString returns the amount as float text with at least one decimal
// place (700.0, 1234.5, 99.99), or "" when it is missing
func (t *Transaction) AmountString() string {
	if !t.Amount.Valid {
		return ""
	}
	s := t.Amount.Decimal.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
