package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id, company_id, email, first_name, last_name, role, status, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.CompanyID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByIDInCompany implements user.UserRepository.
func (r *userRepositoryImpl) GetByIDInCompany(ctx context.Context, id, companyID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND company_id = $2`
	u, err := scanUser(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user in company: %w", err)
	}
	return u, nil
}

// ListActiveByCompany implements user.UserRepository.
func (r *userRepositoryImpl) ListActiveByCompany(ctx context.Context, companyID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND status = $2
		ORDER BY created_at, id
	`
	rows, err := q.Query(ctx, query, companyID, user.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// GetEmploymentDetail implements user.UserRepository.
func (r *userRepositoryImpl) GetEmploymentDetail(ctx context.Context, userID string) (user.EmploymentDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, job_title, work_state, time_zone, created_at, updated_at
		FROM employment_details
		WHERE user_id = $1
	`
	var d user.EmploymentDetail
	err := q.QueryRow(ctx, query, userID).Scan(
		&d.UserID, &d.JobTitle, &d.WorkState, &d.TimeZone, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.EmploymentDetail{}, user.ErrEmploymentDetailNotFound
		}
		return user.EmploymentDetail{}, fmt.Errorf("failed to get employment detail: %w", err)
	}
	return d, nil
}
