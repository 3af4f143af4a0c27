package user

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrUserNotInCompany         = errors.New("user does not belong to this company")
	ErrEmploymentDetailNotFound = errors.New("employment detail not found")
	ErrInsufficientPermissions  = errors.New("insufficient permissions")
	ErrCompanyIDRequired        = errors.New("company ID is required")
)
