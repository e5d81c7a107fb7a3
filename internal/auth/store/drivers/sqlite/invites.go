package sqlite

import (
	"context"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite/gen"
)

type invitesRepo struct {
	q *gen.Queries
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	err := r.q.CreateInvite(ctx, gen.CreateInviteParams{
		ID:        inv.ID,
		Code:      inv.Code,
		Email:     mapStringNull(domain.NormalizeEmail(inv.Email)),
		CreatedBy: mapStringNull(inv.CreatedBy),
		CreatedAt: inv.CreatedAt.UTC(),
		ExpiresAt: inv.ExpiresAt.UTC(),
		Notes:     mapStringNull(inv.Notes),
	})
	return mapConstraint(err)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	row, err := r.q.GetInviteByID(ctx, id)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return mapInvite(row), nil
}

func (r *invitesRepo) GetInviteByCode(ctx context.Context, code string) (domain.Invite, error) {
	row, err := r.q.GetInviteByCode(ctx, code)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return mapInvite(row), nil
}

func (r *invitesRepo) ConsumeInvite(ctx context.Context, inviteID, userID string, at time.Time) error {
	n, err := r.q.ConsumeInvite(ctx, gen.ConsumeInviteParams{
		UsedBy: mapStringNull(userID),
		UsedAt: mapTimeNull(at),
		ID:     inviteID,
		Now:    at.UTC(),
	})
	return mapAffected(n, mapConstraint(err))
}

func (r *invitesRepo) DeleteUnusedInvite(ctx context.Context, inviteID string) error {
	return mapAffected(r.q.DeleteUnusedInvite(ctx, inviteID))
}

func (r *invitesRepo) ListInvites(
	ctx context.Context,
	filter domain.InviteFilter,
	now time.Time,
) ([]domain.Invite, error) {
	rows, err := r.q.ListInvites(ctx, gen.ListInvitesParams{
		IncludeUsed:    filter.IncludeUsed,
		IncludeExpired: filter.IncludeExpired,
		Now:            now.UTC(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapInvite(row))
	}
	return out, nil
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteExpiredInvites(ctx, before.UTC())
}
