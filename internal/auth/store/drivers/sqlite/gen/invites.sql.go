package gen

import (
	"context"
	"database/sql"
	"time"
)

const consumeInvite = `-- name: ConsumeInvite :execrows
UPDATE invites
SET used_by = ?, used_at = ?
WHERE id = ? AND used_by IS NULL AND expires_at >= ?
`

type ConsumeInviteParams struct {
	UsedBy sql.NullString
	UsedAt sql.NullTime
	ID     string
	Now    time.Time
}

func (q *Queries) ConsumeInvite(ctx context.Context, arg ConsumeInviteParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, consumeInvite, arg.UsedBy, arg.UsedAt, arg.ID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createInvite = `-- name: CreateInvite :exec
INSERT INTO invites (id, code, email, created_by, created_at, expires_at, notes)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateInviteParams struct {
	ID        string
	Code      string
	Email     sql.NullString
	CreatedBy sql.NullString
	CreatedAt time.Time
	ExpiresAt time.Time
	Notes     sql.NullString
}

func (q *Queries) CreateInvite(ctx context.Context, arg CreateInviteParams) error {
	_, err := q.db.ExecContext(ctx, createInvite,
		arg.ID,
		arg.Code,
		arg.Email,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.ExpiresAt,
		arg.Notes,
	)
	return err
}

const deleteExpiredInvites = `-- name: DeleteExpiredInvites :execrows
DELETE FROM invites WHERE used_by IS NULL AND expires_at < ?
`

func (q *Queries) DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredInvites, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteUnusedInvite = `-- name: DeleteUnusedInvite :execrows
DELETE FROM invites WHERE id = ? AND used_by IS NULL
`

func (q *Queries) DeleteUnusedInvite(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUnusedInvite, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const selectInvite = `SELECT id, code, email, created_by, used_by, created_at, expires_at, used_at, notes
FROM invites
`

const getInviteByCode = `-- name: GetInviteByCode :one
` + selectInvite + `WHERE code = ?
`

func (q *Queries) GetInviteByCode(ctx context.Context, code string) (Invite, error) {
	return scanInvite(q.db.QueryRowContext(ctx, getInviteByCode, code))
}

const getInviteByID = `-- name: GetInviteByID :one
` + selectInvite + `WHERE id = ?
`

func (q *Queries) GetInviteByID(ctx context.Context, id string) (Invite, error) {
	return scanInvite(q.db.QueryRowContext(ctx, getInviteByID, id))
}

const listInvites = `-- name: ListInvites :many
` + selectInvite + `WHERE (? OR used_by IS NULL)
  AND (? OR expires_at >= ?)
ORDER BY created_at DESC, id DESC
`

type ListInvitesParams struct {
	IncludeUsed    bool
	IncludeExpired bool
	Now            time.Time
}

func (q *Queries) ListInvites(ctx context.Context, arg ListInvitesParams) ([]Invite, error) {
	rows, err := q.db.QueryContext(ctx, listInvites, arg.IncludeUsed, arg.IncludeExpired, arg.Now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(row scanner) (Invite, error) {
	var i Invite
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Email,
		&i.CreatedBy,
		&i.UsedBy,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.UsedAt,
		&i.Notes,
	)
	return i, err
}
