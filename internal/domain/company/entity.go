package company

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CountryPH    = "PH"
	CountryUS    = "US"
	CountryOther = "OTHER"
)

type Company struct {
	ID                string
	Name              string
	DefaultShiftHours *decimal.Decimal
	PayrollCountry    string
	StateCode         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ShiftHours returns the configured default daily hours, or fallback when unset or non-positive.
func (c Company) ShiftHours(fallback decimal.Decimal) decimal.Decimal {
	if c.DefaultShiftHours == nil || !c.DefaultShiftHours.IsPositive() {
		return fallback
	}
	return *c.DefaultShiftHours
}
