package payroll

import (
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

// ResolveJurisdiction picks the bracket lookup key for a user. The employee's work
// state overrides the company state. Unsupported countries collapse to OTHER and
// only US keeps a state.
func ResolveJurisdiction(c company.Company, detail *user.EmploymentDetail) payroll.Jurisdiction {
	country := strings.ToUpper(strings.TrimSpace(c.PayrollCountry))

	state := ""
	if c.StateCode != nil {
		state = *c.StateCode
	}
	if detail != nil && detail.WorkState != nil && strings.TrimSpace(*detail.WorkState) != "" {
		state = *detail.WorkState
	}
	state = strings.ToUpper(strings.TrimSpace(state))

	switch country {
	case company.CountryPH:
		return payroll.Jurisdiction{Country: company.CountryPH}
	case company.CountryUS:
		return payroll.Jurisdiction{Country: company.CountryUS, State: state}
	default:
		return payroll.Jurisdiction{Country: company.CountryOther}
	}
}
