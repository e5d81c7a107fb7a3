package sqlite

import (
	"context"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:              u.ID,
		Email:           domain.NormalizeEmail(u.Email),
		PasswordHash:    u.PasswordHash,
		IsActive:        u.IsActive,
		IsAdmin:         u.IsAdmin,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: mapOptionalTime(u.EmailVerifiedAt),
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: hash,
		UpdatedAt:    at.UTC(),
		ID:           userID,
	})
	return mapMissing(n, err)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	n, err := r.q.UpdateUserLastLogin(ctx, gen.UpdateUserLastLoginParams{
		LastLogin: mapTimeNull(at),
		UpdatedAt: at.UTC(),
		ID:        userID,
	})
	return mapMissing(n, err)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool, at time.Time) error {
	n, err := r.q.SetUserActive(ctx, gen.SetUserActiveParams{
		IsActive:  active,
		UpdatedAt: at.UTC(),
		ID:        userID,
	})
	return mapMissing(n, err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// mapMissing reports ErrNotFound for an unguarded update that matched no row.
func mapMissing(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
