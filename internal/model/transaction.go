// Package model defines domain types for salesdash transactions and aggregates.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one enriched row of the source sales file.
type Transaction struct {
	Line int // 1-based line in the source file

	Date      time.Time
	Category  string
	Business  string
	Quantity  int64
	UnitPrice decimal.Decimal

	// Derived at load time from the fields above.
	SalesValue decimal.Decimal
	MonthYear  string
	Period     time.Time // first instant of Date's calendar month

	// Fields holds every source cell as read, aligned with the dataset's
	// source columns. Extra columns pass through here untouched.
	Fields []string
}

// Clone returns a copy that shares no mutable state with t.
func (t Transaction) Clone() Transaction {
	if t.Fields != nil {
		fields := make([]string, len(t.Fields))
		copy(fields, t.Fields)
		t.Fields = fields
	}
	return t
}
