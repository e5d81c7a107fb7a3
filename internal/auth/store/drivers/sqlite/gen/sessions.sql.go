package gen

import (
	"context"
	"database/sql"
	"time"
)

const createSession = `-- name: CreateSession :exec
INSERT INTO user_sessions (id, user_id, refresh_token, expires_at, created_at, ip_address, user_agent)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	IpAddress    sql.NullString
	UserAgent    sql.NullString
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.UserID,
		arg.RefreshToken,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.IpAddress,
		arg.UserAgent,
	)
	return err
}

const deleteStaleSessions = `-- name: DeleteStaleSessions :execrows
DELETE FROM user_sessions WHERE expires_at < ? OR revoked_at < ?
`

func (q *Queries) DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaleSessions, before, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const selectSession = `SELECT id, user_id, refresh_token, expires_at, created_at, revoked_at, ip_address, user_agent
FROM user_sessions
`

const getSessionByRefreshToken = `-- name: GetSessionByRefreshToken :one
` + selectSession + `WHERE refresh_token = ?
`

func (q *Queries) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (UserSession, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByRefreshToken, refreshToken))
}

const listActiveSessions = `-- name: ListActiveSessions :many
` + selectSession + `WHERE user_id = ? AND revoked_at IS NULL AND expires_at >= ?
ORDER BY created_at DESC, id DESC
`

type ListActiveSessionsParams struct {
	UserID string
	Now    time.Time
}

func (q *Queries) ListActiveSessions(ctx context.Context, arg ListActiveSessionsParams) ([]UserSession, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessions, arg.UserID, arg.Now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserSession
	for rows.Next() {
		i, err := scanSession(rows)
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

const revokeSession = `-- name: RevokeSession :execrows
UPDATE user_sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
`

type RevokeSessionParams struct {
	RevokedAt sql.NullTime
	ID        string
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeSession, arg.RevokedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const revokeUserSessions = `-- name: RevokeUserSessions :execrows
UPDATE user_sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL
`

type RevokeUserSessionsParams struct {
	RevokedAt sql.NullTime
	UserID    string
}

func (q *Queries) RevokeUserSessions(ctx context.Context, arg RevokeUserSessionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeUserSessions, arg.RevokedAt, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSession(row scanner) (UserSession, error) {
	var i UserSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.RefreshToken,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.RevokedAt,
		&i.IpAddress,
		&i.UserAgent,
	)
	return i, err
}
