package sqlite

import (
	"context"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite/gen"
)

type sessionsRepo struct {
	q *gen.Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	err := r.q.CreateSession(ctx, gen.CreateSessionParams{
		ID:           s.ID,
		UserID:       s.UserID,
		RefreshToken: s.TokenHash,
		ExpiresAt:    s.ExpiresAt.UTC(),
		CreatedAt:    s.CreatedAt.UTC(),
		IpAddress:    mapStringNull(s.IPAddress),
		UserAgent:    mapStringNull(s.UserAgent),
	})
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	row, err := r.q.GetSessionByRefreshToken(ctx, hash)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	return mapAffected(r.q.RevokeSession(ctx, gen.RevokeSessionParams{
		RevokedAt: mapTimeNull(at),
		ID:        sessionID,
	}))
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.q.RevokeUserSessions(ctx, gen.RevokeUserSessionsParams{
		RevokedAt: mapTimeNull(at),
		UserID:    userID,
	})
}

func (r *sessionsRepo) ListActiveSessions(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.Session, error) {
	rows, err := r.q.ListActiveSessions(ctx, gen.ListActiveSessionsParams{UserID: userID, Now: now.UTC()})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSession(row))
	}
	return out, nil
}

func (r *sessionsRepo) DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteStaleSessions(ctx, before.UTC())
}
