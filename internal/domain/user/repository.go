package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	// GetByIDInCompany returns ErrUserNotFound when the user belongs to another company.
	GetByIDInCompany(ctx context.Context, id, companyID string) (User, error)
	ListActiveByCompany(ctx context.Context, companyID string) ([]User, error)
	GetEmploymentDetail(ctx context.Context, userID string) (EmploymentDetail, error)
}
