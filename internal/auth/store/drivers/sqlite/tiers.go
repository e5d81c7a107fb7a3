package sqlite

import (
	"context"
	"fmt"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite/gen"
)

type tiersRepo struct {
	q *gen.Queries
}

func (r *tiersRepo) GetTierByUserID(ctx context.Context, userID string) (domain.Tier, error) {
	row, err := r.q.GetTierByUserID(ctx, userID)
	if err != nil {
		return domain.Tier{}, mapNotFound(err)
	}
	t, err := mapTier(row)
	if err != nil {
		return domain.Tier{}, fmt.Errorf("decode features of tier %s: %w", row.ID, err)
	}
	return t, nil
}

func (r *tiersRepo) UpsertTier(ctx context.Context, t domain.Tier) error {
	features, err := encodeFeatures(t.Features)
	if err != nil {
		return fmt.Errorf("encode tier features: %w", err)
	}
	return r.q.UpsertTier(ctx, gen.UpsertTierParams{
		ID:         t.ID,
		UserID:     t.UserID,
		Tier:       t.Name,
		Features:   features,
		ValidFrom:  t.ValidFrom.UTC(),
		ValidUntil: mapOptionalTime(t.ValidUntil),
		CreatedAt:  t.CreatedAt.UTC(),
		UpdatedAt:  t.UpdatedAt.UTC(),
	})
}
