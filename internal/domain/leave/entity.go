package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Request is a leave request. StartDate and EndDate are inclusive calendar instants.
type Request struct {
	ID        string
	CompanyID string
	UserID    string
	PolicyID  *string
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccrualUnit string

const (
	AccrualUnitDays  AccrualUnit = "days"
	AccrualUnitHours AccrualUnit = "hours"
)

type AccrualFrequency string

const (
	AccrualMonthly AccrualFrequency = "monthly"
	AccrualYearly  AccrualFrequency = "yearly"
	AccrualNone    AccrualFrequency = "none"
)

// Policy describes how a company grants one leave type.
type Policy struct {
	ID               string
	CompanyID        string
	LeaveType        string
	AnnualAllocation decimal.Decimal
	AccrualUnit      AccrualUnit
	AccrualFrequency AccrualFrequency
	CreatedAt        time.Time
}

// Balance is the remaining paid leave of one user under one policy, always in hours.
type Balance struct {
	UserID        string
	PolicyID      string
	BalanceHours  decimal.Decimal
	LastAccrualAt *time.Time
	UpdatedAt     time.Time
}
