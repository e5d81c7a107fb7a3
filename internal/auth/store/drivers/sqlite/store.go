package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite/gen"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultDSN waits on locks instead of failing with SQLITE_BUSY and takes
// the write lock when a transaction begins, so two concurrent read-then-write
// transactions serialise instead of deadlocking on lock upgrade.
const DefaultDSN = "file:auth.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// connDefaults are applied by the driver to every pooled connection. A DSN
// that already names the setting keeps its own value.
var connDefaults = []struct{ key, param string }{
	{"_txlock=", "_txlock=immediate"},
	{"foreign_keys", "_pragma=foreign_keys(1)"},
	{"busy_timeout", "_pragma=busy_timeout(5000)"},
}

// WithConnDefaults returns dsn with the locking mode, foreign key
// enforcement and busy timeout the store relies on.
func WithConnDefaults(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, d := range connDefaults {
		if strings.Contains(dsn, d.key) {
			continue
		}
		dsn += sep + d.param
		sep = "&"
	}
	return dsn
}

func NewStore(dsn string) (*Store, error) {
	dsn = WithConnDefaults(dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" opens its own empty database.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users       { return &usersRepo{q: s.q} }
func (s *Store) Invites() store.Invites   { return &invitesRepo{q: s.q} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{q: s.q} }
func (s *Store) Tiers() store.Tiers       { return &tiersRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	var serr *sqlitedrv.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return err
}

// mapAffected reports ErrConflict for a guarded write that matched no row.
func mapAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func mapTimeNull(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:              row.ID,
		Email:           row.Email,
		PasswordHash:    row.PasswordHash,
		IsActive:        row.IsActive,
		IsAdmin:         row.IsAdmin,
		EmailVerified:   row.EmailVerified,
		EmailVerifiedAt: mapNullTimePtr(row.EmailVerifiedAt),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
		LastLogin:       mapNullTimePtr(row.LastLogin),
	}
}

func mapInvite(row gen.Invite) domain.Invite {
	return domain.Invite{
		ID:        row.ID,
		Code:      row.Code,
		Email:     mapNullString(row.Email),
		CreatedBy: mapNullString(row.CreatedBy),
		UsedBy:    mapNullString(row.UsedBy),
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
		UsedAt:    mapNullTimePtr(row.UsedAt),
		Notes:     mapNullString(row.Notes),
	}
}

func mapSession(row gen.UserSession) domain.Session {
	return domain.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.RefreshToken,
		ExpiresAt: row.ExpiresAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
		RevokedAt: mapNullTimePtr(row.RevokedAt),
		IPAddress: mapNullString(row.IpAddress),
		UserAgent: mapNullString(row.UserAgent),
	}
}

func mapTier(row gen.UserTier) (domain.Tier, error) {
	features, err := decodeFeatures(row.Features)
	if err != nil {
		return domain.Tier{}, err
	}
	return domain.Tier{
		ID:         row.ID,
		UserID:     row.UserID,
		Name:       row.Tier,
		Features:   features,
		ValidFrom:  row.ValidFrom.UTC(),
		ValidUntil: mapNullTimePtr(row.ValidUntil),
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}, nil
}

// decodeFeatures restores integral limits to int so they compare equal to
// the values they were written from.
func decodeFeatures(raw string) (domain.Features, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	out := make(domain.Features, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			out[k] = int(f)
			continue
		}
		out[k] = v
	}
	return out, nil
}

func encodeFeatures(f domain.Features) (string, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
