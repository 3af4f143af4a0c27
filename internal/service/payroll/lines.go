package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Line codes
const (
	CodeBasic           = "BASIC"
	CodeOvertime        = "OVERTIME"
	CodeNightDiff       = "NIGHT_DIFF"
	CodeHoliday         = "HOLIDAY"
	CodeLeave           = "LEAVE"
	CodeAllowances      = "ALLOWANCES"
	CodeOtherEarnings   = "OTHER_EARNINGS"
	CodeLateUndertime   = "LATE_UNDERTIME"
	CodeAbsences        = "ABSENCES"
	CodeOtherDeductions = "OTHER_DEDUCTIONS"
	CodeFederalTax      = "WHT_FEDERAL"
	CodeStateTax        = "WHT_STATE"
)

// BuildLines produces the itemized breakdown of an entry. The set of lines depends only
// on the jurisdiction, so zero amounts are included and the breakdown keeps its shape
// across recomputes.
func BuildLines(e payroll.PayrollEntry, j payroll.Jurisdiction, federalTax, stateTax decimal.Decimal) []payroll.PayrollLine {
	var lines []payroll.PayrollLine
	add := func(t payroll.LineType, code, label string, amount decimal.Decimal) {
		lines = append(lines, payroll.PayrollLine{
			EntryID:   e.ID,
			Type:      t,
			Code:      code,
			Label:     label,
			Amount:    amount,
			SortOrder: len(lines) + 1,
		})
	}

	add(payroll.LineTypeEarning, CodeBasic, "Basic Pay", e.BasicPay)
	add(payroll.LineTypeEarning, CodeOvertime, "Overtime Pay", e.OvertimePay)
	add(payroll.LineTypeEarning, CodeNightDiff, "Night Differential", e.NightDiffPay)
	add(payroll.LineTypeEarning, CodeHoliday, "Holiday Pay", e.HolidayPay)
	add(payroll.LineTypeEarning, CodeLeave, "Leave Pay", e.LeavePay)
	add(payroll.LineTypeEarning, CodeAllowances, "Allowances", e.Allowances)
	add(payroll.LineTypeEarning, CodeOtherEarnings, "Other Earnings", e.OtherEarnings)

	add(payroll.LineTypeDeduction, CodeLateUndertime, "Late / Undertime", e.LateUndertime)
	add(payroll.LineTypeDeduction, CodeAbsences, "Absences", e.Absences)
	add(payroll.LineTypeDeduction, CodeOtherDeductions, "Other Deductions", e.OtherDeductions)

	switch j.Code() {
	case payroll.JurisdictionPH:
		add(payroll.LineTypeContribution, payroll.AgencySSS, "SSS", e.SSSEmployee)
		add(payroll.LineTypeContribution, payroll.AgencyPhilHealth, "PhilHealth", e.PhilHealthEmployee)
		add(payroll.LineTypeContribution, payroll.AgencyPagIBIG, "Pag-IBIG", e.PagIBIGEmployee)
	case payroll.JurisdictionUSCA, payroll.JurisdictionUSOther:
		add(payroll.LineTypeContribution, payroll.AgencySocialSecurity, "Social Security", e.FICASocialSecurity)
		add(payroll.LineTypeContribution, payroll.AgencyMedicare, "Medicare", e.FICAMedicare)
		if j.Code() == payroll.JurisdictionUSCA {
			add(payroll.LineTypeContribution, payroll.AgencyCASDI, "CA SDI", e.CASDI)
		}
	}

	add(payroll.LineTypeTax, CodeFederalTax, "Federal Withholding Tax", federalTax)
	if j.Code() == payroll.JurisdictionUSCA {
		add(payroll.LineTypeTax, CodeStateTax, "State Withholding Tax", stateTax)
	}
	return lines
}
