package gen

import (
	"context"
	"database/sql"
	"time"
)

const getTierByUserID = `-- name: GetTierByUserID :one
SELECT id, user_id, tier, features, valid_from, valid_until, created_at, updated_at
FROM user_tiers
WHERE user_id = ?
`

func (q *Queries) GetTierByUserID(ctx context.Context, userID string) (UserTier, error) {
	row := q.db.QueryRowContext(ctx, getTierByUserID, userID)
	var i UserTier
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Tier,
		&i.Features,
		&i.ValidFrom,
		&i.ValidUntil,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertTier = `-- name: UpsertTier :exec
INSERT INTO user_tiers (id, user_id, tier, features, valid_from, valid_until, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    tier        = excluded.tier,
    features    = excluded.features,
    valid_from  = excluded.valid_from,
    valid_until = excluded.valid_until,
    updated_at  = excluded.updated_at
`

type UpsertTierParams struct {
	ID         string
	UserID     string
	Tier       string
	Features   string
	ValidFrom  time.Time
	ValidUntil sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (q *Queries) UpsertTier(ctx context.Context, arg UpsertTierParams) error {
	_, err := q.db.ExecContext(ctx, upsertTier,
		arg.ID,
		arg.UserID,
		arg.Tier,
		arg.Features,
		arg.ValidFrom,
		arg.ValidUntil,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
